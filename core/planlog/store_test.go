package planlog

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func sampleRecords(now time.Time) []LogRecord {
	return []LogRecord{
		{Timestamp: now.Add(-2 * time.Hour), Op: "add", Outcome: OutcomeCommitted, ScheduleID: "s1"},
		{Timestamp: now.Add(-time.Hour), Op: "update", Outcome: OutcomeRejected, Reason: "booking_conflict", ScheduleID: "s1"},
		{Timestamp: now, Op: "delete", Outcome: OutcomeRejected, Reason: "delete_on_virtual_instance", ScheduleID: "s2"},
	}
}

func exerciseStore(t *testing.T, store LogStore) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	for _, r := range sampleRecords(now) {
		if err := store.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	all, err := store.Query(ctx, LogQuery{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 || all[0].Op != "add" {
		t.Fatalf("unexpected records %#v", all)
	}
	rejected, err := store.Query(ctx, LogQuery{Outcome: OutcomeRejected, ScheduleID: "s1"})
	if err != nil {
		t.Fatalf("query rejected: %v", err)
	}
	if len(rejected) != 1 || rejected[0].Reason != "booking_conflict" {
		t.Fatalf("unexpected rejected %#v", rejected)
	}
	recent, err := store.Query(ctx, LogQuery{Start: now.Add(-90 * time.Minute), Op: "delete"})
	if err != nil {
		t.Fatalf("query recent: %v", err)
	}
	if len(recent) != 1 || recent[0].ScheduleID != "s2" {
		t.Fatalf("unexpected recent %#v", recent)
	}
}

func TestSQLiteStore_PersistQuery(t *testing.T) {
	store, err := NewSQLiteStore("file:planlog_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestRotatingJSONLStore_Query(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "plan.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 5, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	issue := fmt.Sprintf("%01024d", 0)
	rec := LogRecord{Timestamp: time.Now(), Op: "add", Outcome: OutcomeRejected, Issues: []string{issue}}
	for i := 0; i < 1100; i++ {
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	files, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "plan*.jsonl"))
	if len(files) < 2 {
		t.Fatalf("expected rotated files, got %v", files)
	}
	out, err := store.Query(context.Background(), LogQuery{Op: "add"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1100 {
		t.Fatalf("expected all records across files, got %d", len(out))
	}
}

func TestNewStoreBackends(t *testing.T) {
	dir := t.TempDir()
	for _, cfg := range []Config{
		{Backend: "jsonl", Path: filepath.Join(dir, "a.jsonl")},
		{Backend: "sqlite", Path: filepath.Join(dir, "a.db")},
		{Backend: "none"},
	} {
		s, err := NewStore(cfg)
		if err != nil {
			t.Fatalf("%s: %v", cfg.Backend, err)
		}
		_ = s.Close()
	}
	if _, err := NewStore(Config{Backend: "kafka"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
