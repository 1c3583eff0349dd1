package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/kilianp07/opsplan/core/model"
	"github.com/kilianp07/opsplan/core/recurrence"
)

func TestWindow(t *testing.T) {
	cases := []struct {
		mode     ViewMode
		anchor   string
		from, to string
	}{
		{ViewWeek, "2025-04-02", "2025-03-31", "2025-04-06"},
		{ViewWeek, "2025-04-06", "2025-03-31", "2025-04-06"},
		{ViewWeek, "2025-04-07", "2025-04-07", "2025-04-13"},
		{ViewMonth, "2025-02-14", "2025-02-01", "2025-02-28"},
		{ViewMonth, "2024-02-29", "2024-02-01", "2024-02-29"},
		{ViewMonth, "2025-12-31", "2025-12-01", "2025-12-31"},
	}
	for _, tc := range cases {
		from, to := Window(tc.mode, model.MustDate(tc.anchor))
		if from.String() != tc.from || to.String() != tc.to {
			t.Fatalf("%s %s: got %s..%s, want %s..%s", tc.mode, tc.anchor, from, to, tc.from, tc.to)
		}
	}
}

type stubExpander struct {
	from, to model.Date
	entries  []recurrence.Entry
	err      error
}

func (s *stubExpander) Expand(_ context.Context, from, to model.Date) ([]recurrence.Entry, error) {
	s.from, s.to = from, to
	return s.entries, s.err
}

func TestView_Refresh(t *testing.T) {
	src := &stubExpander{entries: []recurrence.Entry{{Ref: recurrence.BaseRef("s1")}}}
	v := NewView(src, "", model.MustDate("2025-04-02"))
	if err := v.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if src.from.String() != "2025-03-31" || src.to.String() != "2025-04-06" {
		t.Fatalf("unexpected window %s..%s", src.from, src.to)
	}
	if len(v.Entries()) != 1 || v.RefreshedAt().IsZero() {
		t.Fatalf("entries not stored")
	}

	v.SetMode(ViewMonth)
	v.SetAnchor(model.MustDate("2025-05-20"))
	src.err = errors.New("store down")
	if err := v.Refresh(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if src.from.String() != "2025-05-01" || src.to.String() != "2025-05-31" {
		t.Fatalf("unexpected month window %s..%s", src.from, src.to)
	}
	if len(v.Entries()) != 1 {
		t.Fatalf("failed refresh must keep previous entries")
	}
}
