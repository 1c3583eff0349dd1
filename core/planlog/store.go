// Package planlog keeps an audit trail of schedule mutations: what was
// requested, whether it was committed and, when rejected, why.
package planlog

import (
	"context"
	"time"
)

// Outcome values.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
)

// LogRecord captures one mutation attempt.
type LogRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Op         string    `json:"op"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	ScheduleID string    `json:"schedule_id,omitempty"`
	BusID      string    `json:"bus_id,omitempty"`
	DriverID   string    `json:"driver_id,omitempty"`
	Date       string    `json:"date,omitempty"`
	Window     string    `json:"window,omitempty"`
	Issues     []string  `json:"issues,omitempty"`
	Confirmed  bool      `json:"route_hours_confirmed,omitempty"`
}

// LogQuery filters records. Zero fields match everything.
type LogQuery struct {
	Start      time.Time
	End        time.Time
	Op         string
	Outcome    string
	ScheduleID string
}

// Match reports whether r passes the filters of q.
func (q LogQuery) Match(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Op != "" && r.Op != q.Op {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	if q.ScheduleID != "" && r.ScheduleID != q.ScheduleID {
		return false
	}
	return true
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, LogRecord) error              { return nil }
func (NopStore) Query(context.Context, LogQuery) ([]LogRecord, error) { return nil, nil }
func (NopStore) Close() error                                         { return nil }
