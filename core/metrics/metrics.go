package metrics

import "time"

// MutationEvent records the outcome of one add, update, copy or delete.
type MutationEvent struct {
	Op       string
	Outcome  string
	Reason   string
	Duration time.Duration
	Time     time.Time
}

// MetricsSink records mutation outcomes.
type MetricsSink interface {
	RecordMutation(ev MutationEvent) error
}

// ConflictEvent counts the conflicts of one kind found by a validation pass.
type ConflictEvent struct {
	Kind  string
	Count int
	Time  time.Time
}

// ConflictRecorder is implemented by sinks that track conflicts.
type ConflictRecorder interface {
	RecordConflicts(ev []ConflictEvent) error
}

// ExpansionEvent describes one recurrence expansion pass.
type ExpansionEvent struct {
	WindowDays int
	Base       int
	Instances  int
	Time       time.Time
}

// ExpansionRecorder is implemented by sinks that track expansions.
type ExpansionRecorder interface {
	RecordExpansion(ev ExpansionEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordMutation(MutationEvent) error    { return nil }
func (NopSink) RecordConflicts([]ConflictEvent) error { return nil }
func (NopSink) RecordExpansion(ExpansionEvent) error  { return nil }
