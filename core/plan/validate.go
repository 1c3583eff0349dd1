package plan

import (
	"encoding/json"
	"fmt"

	"github.com/kilianp07/opsplan/core/conflict"
	"github.com/kilianp07/opsplan/core/model"
	"github.com/kilianp07/opsplan/core/recurrence"
	"github.com/kilianp07/opsplan/core/routehours"
	"github.com/kilianp07/opsplan/core/timeslot"
)

// Severity of an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding of Validate.
type Issue struct {
	Reason     *Reason             `json:"-"`
	Severity   Severity            `json:"severity"`
	Field      string              `json:"field,omitempty"`
	Message    string              `json:"message"`
	Conflict   *conflict.Conflict  `json:"conflict,omitempty"`
	RouteHours *routehours.Warning `json:"route_hours,omitempty"`
}

// MarshalJSON adds the reason code.
func (i Issue) MarshalJSON() ([]byte, error) {
	type alias Issue
	code := ""
	if i.Reason != nil {
		code = i.Reason.Code
	}
	return json.Marshal(struct {
		Code string `json:"code"`
		alias
	}{Code: code, alias: alias(i)})
}

// Snapshot is the in-memory state a validation pass runs against.
type Snapshot struct {
	Schedules []model.BaseSchedule
	Reference model.Reference
}

// Validate checks candidate against snap and returns every finding, ordered
// by pipeline stage: entry checks (fields, time order, recurrence,
// references), route hours, external reservations, then bookings. Conflict
// checks only run when the entry checks pass. candidate.ID, when set, names
// the record being edited and is excluded from booking checks.
//
// Validate has no side effects.
func Validate(candidate model.BaseSchedule, snap Snapshot, cfg Config) []Issue {
	issues := entryIssues(candidate, snap.Reference, cfg)
	if len(issues) > 0 {
		return issues
	}
	route, _ := snap.Reference.Route(candidate.RouteID)
	if w := routehours.Check(route, candidate.StartTime, candidate.EndTime); w != nil {
		issues = append(issues, Issue{
			Reason:     ErrRouteHoursWarning,
			Severity:   SeverityWarning,
			Field:      "start_time",
			Message:    fmt.Sprintf("%s is outside route %s hours %s", w.Requested, w.RouteName, w.RouteWindow),
			RouteHours: w,
		})
	}
	rep := conflictsFor(candidate, snap)
	for i := range rep.External {
		c := rep.External[i]
		issues = append(issues, Issue{Reason: ErrExternalConflict, Severity: SeverityError, Field: "bus_id", Message: c.String(), Conflict: &c})
	}
	for i := range rep.Booking {
		c := rep.Booking[i]
		field := "bus_id"
		if c.Kind == conflict.KindDriver {
			field = "driver_id"
		}
		issues = append(issues, Issue{Reason: ErrBookingConflict, Severity: SeverityError, Field: field, Message: c.String(), Conflict: &c})
	}
	return issues
}

func entryIssues(c model.BaseSchedule, ref model.Reference, cfg Config) []Issue {
	var issues []Issue
	missing := func(field string) {
		issues = append(issues, Issue{Reason: ErrMissingField, Severity: SeverityError, Field: field, Message: field + " is required"})
	}
	if c.BusID == "" {
		missing("bus_id")
	}
	if c.DriverID == "" {
		missing("driver_id")
	}
	if c.RouteID == "" {
		missing("route_id")
	}
	if c.Date.IsZero() {
		missing("date")
	}
	if c.StartTime == "" {
		missing("start_time")
	}
	if c.EndTime == "" {
		missing("end_time")
	}
	if len(issues) > 0 {
		return issues
	}

	start, serr := timeslot.ToMinutes(c.StartTime)
	end, eerr := timeslot.ToMinutes(c.EndTime)
	switch {
	case serr != nil:
		issues = append(issues, Issue{Reason: ErrInvalidTimeOrder, Severity: SeverityError, Field: "start_time", Message: serr.Error()})
	case eerr != nil:
		issues = append(issues, Issue{Reason: ErrInvalidTimeOrder, Severity: SeverityError, Field: "end_time", Message: eerr.Error()})
	case end <= start:
		// Schedules owned here never wrap midnight.
		issues = append(issues, Issue{Reason: ErrInvalidTimeOrder, Severity: SeverityError, Field: "end_time",
			Message: fmt.Sprintf("end time %s must be after start time %s", c.EndTime, c.StartTime)})
	}

	if c.IsRepeating {
		if c.RepeatDays.Empty() {
			issues = append(issues, Issue{Reason: ErrInvalidRecurrence, Severity: SeverityError, Field: "repeat_days", Message: "at least one repeat day is required"})
		}
		switch {
		case c.RepeatEndDate.IsZero():
			issues = append(issues, Issue{Reason: ErrInvalidRecurrence, Severity: SeverityError, Field: "repeat_end_date", Message: "repeat end date is required"})
		case c.RepeatEndDate.Before(c.Date):
			issues = append(issues, Issue{Reason: ErrInvalidRecurrence, Severity: SeverityError, Field: "repeat_end_date",
				Message: fmt.Sprintf("repeat end date %s is before %s", c.RepeatEndDate, c.Date)})
		case cfg.MaxRecurrenceDays > 0 && c.Date.DaysUntil(c.RepeatEndDate) > cfg.MaxRecurrenceDays:
			issues = append(issues, Issue{Reason: ErrInvalidRecurrence, Severity: SeverityError, Field: "repeat_end_date",
				Message: fmt.Sprintf("recurrence spans more than %d days", cfg.MaxRecurrenceDays)})
		}
	}

	if _, ok := ref.Bus(c.BusID); !ok {
		issues = append(issues, Issue{Reason: ErrUnknownReference, Severity: SeverityError, Field: "bus_id", Message: "unknown bus " + c.BusID})
	}
	if _, ok := ref.Driver(c.DriverID); !ok {
		issues = append(issues, Issue{Reason: ErrUnknownReference, Severity: SeverityError, Field: "driver_id", Message: "unknown driver " + c.DriverID})
	}
	if _, ok := ref.Route(c.RouteID); !ok {
		issues = append(issues, Issue{Reason: ErrUnknownReference, Severity: SeverityError, Field: "route_id", Message: "unknown route " + c.RouteID})
	}
	return issues
}

// occurrenceDates lists the days the candidate occupies: its own date and,
// when repeating, every occurrence up to the repeat end date.
func occurrenceDates(c model.BaseSchedule) []model.Date {
	dates := []model.Date{c.Date}
	if !c.IsRepeating {
		return dates
	}
	for d := c.Date.AddDays(1); !d.After(c.RepeatEndDate); d = d.AddDays(1) {
		if recurrence.Occurs(c, d) {
			dates = append(dates, d)
		}
	}
	return dates
}

func conflictsFor(c model.BaseSchedule, snap Snapshot) conflict.Report {
	dates := occurrenceDates(c)
	from, to := dates[0], dates[len(dates)-1]
	var existing []conflict.Existing
	for _, e := range recurrence.InWindow(recurrence.Expand(snap.Schedules, from, to), from, to) {
		existing = append(existing, conflict.Existing{OriginID: e.OriginalScheduleID(), Schedule: e.Schedule})
	}
	busNumber := ""
	if b, ok := snap.Reference.Bus(c.BusID); ok {
		busNumber = b.Number
	}
	var rep conflict.Report
	for _, d := range dates {
		r, err := conflict.FindConflicts(conflict.CandidateFrom(c.OnDate(d), busNumber), existing, snap.Reference.Externals)
		if err != nil {
			continue
		}
		rep.Merge(r)
	}
	return rep
}

// HasErrors reports whether any issue is a hard error.
func HasErrors(issues []Issue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

func firstWith(issues []Issue, reasons ...*Reason) (*Reason, bool) {
	for _, is := range issues {
		for _, r := range reasons {
			if is.Reason == r {
				return r, true
			}
		}
	}
	return nil, false
}

func routeWarning(issues []Issue) *Issue {
	for i := range issues {
		if issues[i].Reason == ErrRouteHoursWarning {
			return &issues[i]
		}
	}
	return nil
}
