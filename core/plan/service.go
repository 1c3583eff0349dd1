// Package plan validates and commits changes to the operation plan: adding,
// editing, copying and deleting driver/bus/route assignments. Every request
// goes through the same pipeline (entry checks, route-hours advisory,
// external reservations, bookings) against a snapshot fetched at the start
// of the request, and only then reaches the store.
package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/opsplan/core/conflict"
	"github.com/kilianp07/opsplan/core/logger"
	"github.com/kilianp07/opsplan/core/metrics"
	"github.com/kilianp07/opsplan/core/model"
	"github.com/kilianp07/opsplan/core/monitoring"
	"github.com/kilianp07/opsplan/core/planlog"
	"github.com/kilianp07/opsplan/core/recurrence"
	"github.com/kilianp07/opsplan/core/routehours"
)

// Store is the external schedule store.
type Store interface {
	ListSchedules(ctx context.Context) ([]model.BaseSchedule, error)
	// CreateSchedule persists s and returns it with its assigned id.
	CreateSchedule(ctx context.Context, s model.BaseSchedule) (model.BaseSchedule, error)
	UpdateSchedule(ctx context.Context, s model.BaseSchedule) (model.BaseSchedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// ReferenceSource supplies the read-only lookup tables.
type ReferenceSource interface {
	ListDrivers(ctx context.Context) ([]model.Driver, error)
	ListBuses(ctx context.Context) ([]model.Bus, error)
	ListRoutes(ctx context.Context) ([]model.Route, error)
	ListExternalBusAssignments(ctx context.Context) ([]model.ExternalBusAssignment, error)
}

// ChangePublisher receives committed changes.
type ChangePublisher interface {
	Publish(Change)
}

// Op names a mutation.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpCopy   Op = "copy"
	OpDelete Op = "delete"
)

// ConfirmFunc asks the user whether to proceed despite a route-hours warning.
type ConfirmFunc func(ctx context.Context, w routehours.Warning) bool

// AlwaysConfirm accepts every warning.
func AlwaysConfirm(context.Context, routehours.Warning) bool { return true }

// Request describes one mutation.
type Request struct {
	Op Op
	// Schedule is the payload of add and update.
	Schedule model.BaseSchedule
	// Target is the record an update, copy or delete applies to. For update
	// it defaults to BaseRef(Schedule.ID).
	Target recurrence.Ref
	// CopyDate is the date a copy lands on.
	CopyDate model.Date
	// Confirm is consulted on route-hours warnings. Nil declines.
	Confirm ConfirmFunc
}

// Change is published after a successful commit.
type Change struct {
	Op       Op                 `json:"op"`
	Schedule model.BaseSchedule `json:"schedule"`
	Time     time.Time          `json:"time"`
}

// Service orchestrates validation and commit of schedule mutations.
type Service struct {
	store Store
	ref   ReferenceSource
	cfg   Config
	log   logger.Logger
	sink  metrics.MetricsSink
	audit planlog.LogStore
	pub   ChangePublisher
	now   func() time.Time
}

// NewService wires a Service. log, sink, audit and pub may be nil.
func NewService(store Store, ref ReferenceSource, cfg Config, log logger.Logger, sink metrics.MetricsSink, audit planlog.LogStore, pub ChangePublisher) (*Service, error) {
	if store == nil {
		return nil, errors.New("schedule store is required")
	}
	if ref == nil {
		return nil, errors.New("reference source is required")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if audit == nil {
		audit = planlog.NopStore{}
	}
	return &Service{store: store, ref: ref, cfg: cfg, log: log, sink: sink, audit: audit, pub: pub, now: time.Now}, nil
}

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// Snapshot fetches the schedules and reference tables used by one request.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var err error
	if snap.Schedules, err = s.store.ListSchedules(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("list schedules: %w", err)
	}
	if snap.Reference.Drivers, err = s.ref.ListDrivers(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("list drivers: %w", err)
	}
	if snap.Reference.Buses, err = s.ref.ListBuses(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("list buses: %w", err)
	}
	if snap.Reference.Routes, err = s.ref.ListRoutes(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("list routes: %w", err)
	}
	if snap.Reference.Externals, err = s.ref.ListExternalBusAssignments(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("list external assignments: %w", err)
	}
	return snap, nil
}

// Expand fetches the stored schedules and expands them for [from, to].
func (s *Service) Expand(ctx context.Context, from, to model.Date) ([]recurrence.Entry, error) {
	list, err := s.store.ListSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	entries := recurrence.InWindow(recurrence.Expand(list, from, to), from, to)
	instances := 0
	for _, e := range entries {
		if e.IsRepeatingInstance() {
			instances++
		}
	}
	if rec, ok := s.sink.(metrics.ExpansionRecorder); ok {
		ev := metrics.ExpansionEvent{WindowDays: from.DaysUntil(to) + 1, Base: len(entries) - instances, Instances: instances, Time: s.now()}
		if err := rec.RecordExpansion(ev); err != nil {
			s.log.Warnf("record expansion: %v", err)
		}
	}
	return entries, nil
}

// CheckRouteHours reports whether start-end fits the route's operating window.
func (s *Service) CheckRouteHours(route model.Route, start, end string) bool {
	return routehours.IsWithinRouteHours(route, start, end)
}

// FindConflicts checks candidate against the current store contents without
// committing anything. candidate.ID, when set, is excluded.
func (s *Service) FindConflicts(ctx context.Context, candidate model.BaseSchedule) ([]Issue, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	normalize(&candidate)
	return Validate(candidate, snap, s.cfg), nil
}

// ValidateAndCommit runs a mutation through the pipeline. On success it
// returns the stored record (the deleted one for OpDelete). Failures are
// *Rejection values.
func (s *Service) ValidateAndCommit(ctx context.Context, req Request) (model.BaseSchedule, error) {
	started := s.now()
	out, rec, err := s.apply(ctx, req)
	rec.Timestamp = s.now()
	rec.Op = string(req.Op)
	outcome, reason := planlog.OutcomeCommitted, ""
	var rej *Rejection
	if errors.As(err, &rej) {
		outcome, reason = planlog.OutcomeRejected, rej.Reason.Code
		rec.Issues = issueMessages(rej.Issues)
		if rej.Err != nil {
			rec.Issues = append(rec.Issues, rej.Err.Error())
		}
		s.log.Warnw("schedule mutation rejected", map[string]any{"op": req.Op, "reason": reason, "schedule_id": rec.ScheduleID})
	} else if err != nil {
		outcome, reason = planlog.OutcomeRejected, "invalid_request"
		rec.Issues = []string{err.Error()}
		s.log.Warnf("%s: %v", req.Op, err)
	} else {
		s.log.Infow("schedule mutation committed", map[string]any{"op": req.Op, "schedule_id": out.ID, "date": out.Date.String()})
	}
	rec.Outcome, rec.Reason = outcome, reason
	if aerr := s.audit.Append(ctx, rec); aerr != nil {
		s.log.Errorf("audit append: %v", aerr)
	}
	if merr := s.sink.RecordMutation(metrics.MutationEvent{Op: string(req.Op), Outcome: outcome, Reason: reason, Duration: s.now().Sub(started), Time: rec.Timestamp}); merr != nil {
		s.log.Warnf("record mutation: %v", merr)
	}
	if err == nil && s.pub != nil {
		s.pub.Publish(Change{Op: req.Op, Schedule: out, Time: rec.Timestamp})
	}
	return out, err
}

// Add validates and creates a schedule.
func (s *Service) Add(ctx context.Context, sched model.BaseSchedule, confirm ConfirmFunc) (model.BaseSchedule, error) {
	return s.ValidateAndCommit(ctx, Request{Op: OpAdd, Schedule: sched, Confirm: confirm})
}

// Update validates and replaces the stored schedule with the same id.
func (s *Service) Update(ctx context.Context, sched model.BaseSchedule, confirm ConfirmFunc) (model.BaseSchedule, error) {
	return s.ValidateAndCommit(ctx, Request{Op: OpUpdate, Schedule: sched, Confirm: confirm})
}

// Copy creates a single-day copy of target on date.
func (s *Service) Copy(ctx context.Context, target recurrence.Ref, date model.Date, confirm ConfirmFunc) (model.BaseSchedule, error) {
	return s.ValidateAndCommit(ctx, Request{Op: OpCopy, Target: target, CopyDate: date, Confirm: confirm})
}

// Delete removes a base schedule and, implicitly, all its instances.
func (s *Service) Delete(ctx context.Context, target recurrence.Ref) (model.BaseSchedule, error) {
	return s.ValidateAndCommit(ctx, Request{Op: OpDelete, Target: target})
}

func (s *Service) apply(ctx context.Context, req Request) (model.BaseSchedule, planlog.LogRecord, error) {
	var rec planlog.LogRecord
	switch req.Op {
	case OpDelete:
		rec.ScheduleID = req.Target.ScheduleID
		if req.Target.IsInstance() {
			return model.BaseSchedule{}, rec, reject(req.Op, ErrDeleteOnVirtualInstance, nil)
		}
	case OpUpdate:
		if req.Target.ScheduleID == "" {
			req.Target = recurrence.BaseRef(req.Schedule.ID)
		}
		rec.ScheduleID = req.Target.ScheduleID
		if req.Target.IsInstance() {
			return model.BaseSchedule{}, rec, reject(req.Op, ErrEditOnVirtualInstance, nil)
		}
	case OpAdd, OpCopy:
	default:
		return model.BaseSchedule{}, rec, fmt.Errorf("unknown operation %q", req.Op)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return model.BaseSchedule{}, rec, s.commitFailure(req.Op, err)
	}
	arena := recurrence.NewArena(snap.Schedules)

	var candidate model.BaseSchedule
	switch req.Op {
	case OpDelete:
		target, ok := arena.Origin(req.Target)
		if !ok {
			return model.BaseSchedule{}, rec, reject(req.Op, ErrNotFound, nil)
		}
		fillRecord(&rec, target)
		if err := s.store.DeleteSchedule(ctx, target.ID); err != nil {
			return model.BaseSchedule{}, rec, s.commitFailure(req.Op, err)
		}
		return target, rec, nil
	case OpUpdate:
		if _, ok := arena.Origin(req.Target); !ok {
			return model.BaseSchedule{}, rec, reject(req.Op, ErrNotFound, nil)
		}
		candidate = req.Schedule
		candidate.ID = req.Target.ScheduleID
	case OpCopy:
		src, ok := arena.Resolve(req.Target)
		if !ok {
			return model.BaseSchedule{}, rec, reject(req.Op, ErrNotFound, nil)
		}
		candidate = src
		candidate.ID = ""
		candidate.Date = req.CopyDate
		candidate.ClearRecurrence()
	case OpAdd:
		candidate = req.Schedule
		candidate.ID = ""
	}
	normalize(&candidate)
	fillRecord(&rec, candidate)

	issues := Validate(candidate, snap, s.cfg)
	s.recordConflicts(issues)
	if reason, ok := firstWith(issues, ErrMissingField, ErrInvalidTimeOrder, ErrInvalidRecurrence, ErrUnknownReference); ok {
		return model.BaseSchedule{}, rec, reject(req.Op, reason, issues)
	}
	if w := routeWarning(issues); w != nil {
		if req.Confirm == nil || !req.Confirm(ctx, *w.RouteHours) {
			return model.BaseSchedule{}, rec, reject(req.Op, ErrRouteHoursWarning, issues)
		}
		rec.Confirmed = true
	}
	if reason, ok := firstWith(issues, ErrExternalConflict, ErrBookingConflict); ok {
		return model.BaseSchedule{}, rec, reject(req.Op, reason, issues)
	}

	var out model.BaseSchedule
	if req.Op == OpUpdate {
		out, err = s.store.UpdateSchedule(ctx, candidate)
	} else {
		out, err = s.store.CreateSchedule(ctx, candidate)
	}
	if err != nil {
		return model.BaseSchedule{}, rec, s.commitFailure(req.Op, err)
	}
	rec.ScheduleID = out.ID
	return out, rec, nil
}

func (s *Service) commitFailure(op Op, err error) *Rejection {
	monitoring.CaptureException(err, map[string]string{"op": string(op)})
	s.log.Errorf("%s: store error: %v", op, err)
	return &Rejection{Op: op, Reason: ErrCommitFailure, Err: err}
}

func (s *Service) recordConflicts(issues []Issue) {
	rec, ok := s.sink.(metrics.ConflictRecorder)
	if !ok {
		return
	}
	counts := map[conflict.Kind]int{}
	for _, is := range issues {
		if is.Conflict != nil {
			counts[is.Conflict.Kind]++
		}
	}
	if len(counts) == 0 {
		return
	}
	now := s.now()
	var evs []metrics.ConflictEvent
	for _, k := range []conflict.Kind{conflict.KindBus, conflict.KindDriver, conflict.KindExternal} {
		if counts[k] > 0 {
			evs = append(evs, metrics.ConflictEvent{Kind: string(k), Count: counts[k], Time: now})
		}
	}
	if err := rec.RecordConflicts(evs); err != nil {
		s.log.Warnf("record conflicts: %v", err)
	}
}

// normalize clears recurrence fields on non-repeating records.
func normalize(s *model.BaseSchedule) {
	if !s.IsRepeating {
		s.ClearRecurrence()
	}
}

func fillRecord(rec *planlog.LogRecord, s model.BaseSchedule) {
	if s.ID != "" {
		rec.ScheduleID = s.ID
	}
	rec.BusID = s.BusID
	rec.DriverID = s.DriverID
	rec.Date = s.Date.String()
	rec.Window = s.StartTime + "-" + s.EndTime
}

func issueMessages(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Message)
	}
	return out
}
