package metrics

import "testing"

type recordSink struct {
	count int
}

func (r *recordSink) RecordMutation(MutationEvent) error {
	r.count++
	return nil
}

func (r *recordSink) RecordExpansion(ExpansionEvent) error {
	r.count++
	return nil
}

func TestMultiSinkForwards(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2, NopSink{})
	if err := m.RecordMutation(MutationEvent{Op: "add"}); err != nil {
		t.Fatalf("record mutation: %v", err)
	}
	if err := m.RecordExpansion(ExpansionEvent{}); err != nil {
		t.Fatalf("record expansion: %v", err)
	}
	if err := m.RecordConflicts([]ConflictEvent{{Kind: "bus", Count: 1}}); err != nil {
		t.Fatalf("record conflicts: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("events not forwarded: %d %d", s1.count, s2.count)
	}
}

type closingSink struct {
	recordSink
	closed bool
}

func (c *closingSink) Close() { c.closed = true }

func TestMultiSinkClose(t *testing.T) {
	c := &closingSink{}
	NewMultiSink(&recordSink{}, c).Close()
	if !c.closed {
		t.Fatalf("closable sink not closed")
	}
}
