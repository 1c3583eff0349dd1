// Package recurrence materializes the dated occurrences of repeating
// schedules for a display window. Occurrences are virtual: they are never
// stored and point back to their base record through a Ref.
package recurrence

import (
	"sort"

	"github.com/kilianp07/opsplan/core/model"
)

// RefKind tells a base record apart from a derived occurrence.
type RefKind int

const (
	RefBase RefKind = iota
	RefInstance
)

// Ref identifies an entry of an expansion. Instance refs carry the id of the
// base record and the occurrence date, so the origin never has to be parsed
// back out of a display key.
type Ref struct {
	Kind       RefKind    `json:"kind"`
	ScheduleID string     `json:"schedule_id"`
	Date       model.Date `json:"date,omitempty"`
}

// BaseRef references a stored schedule.
func BaseRef(id string) Ref { return Ref{Kind: RefBase, ScheduleID: id} }

// InstanceRef references the occurrence of schedule id on date d.
func InstanceRef(id string, d model.Date) Ref {
	return Ref{Kind: RefInstance, ScheduleID: id, Date: d}
}

func (r Ref) IsInstance() bool { return r.Kind == RefInstance }

// Key renders the display identifier: the base id, suffixed with the ISO
// date for instances.
func (r Ref) Key() string {
	if r.Kind == RefInstance {
		return r.ScheduleID + "-" + r.Date.String()
	}
	return r.ScheduleID
}

// Entry is one row of an expansion.
type Entry struct {
	Ref      Ref                `json:"ref"`
	Schedule model.BaseSchedule `json:"schedule"`
}

// IsRepeatingInstance reports whether the entry is a derived occurrence.
func (e Entry) IsRepeatingInstance() bool { return e.Ref.IsInstance() }

// OriginalScheduleID returns the id of the stored record behind the entry.
func (e Entry) OriginalScheduleID() string { return e.Ref.ScheduleID }

// Arena indexes base schedules by id.
type Arena map[string]model.BaseSchedule

// NewArena indexes list by id.
func NewArena(list []model.BaseSchedule) Arena {
	a := make(Arena, len(list))
	for _, s := range list {
		a[s.ID] = s
	}
	return a
}

// Origin returns the stored record a ref points to.
func (a Arena) Origin(r Ref) (model.BaseSchedule, bool) {
	s, ok := a[r.ScheduleID]
	return s, ok
}

// Resolve returns the schedule as seen through r: the base record itself, or
// the base record re-dated to the instance date.
func (a Arena) Resolve(r Ref) (model.BaseSchedule, bool) {
	s, ok := a.Origin(r)
	if !ok {
		return model.BaseSchedule{}, false
	}
	if r.IsInstance() {
		if !Occurs(s, r.Date) {
			return model.BaseSchedule{}, false
		}
		return s.OnDate(r.Date), true
	}
	return s, true
}

// Occurs reports whether the repeating schedule s has an occurrence on d.
func Occurs(s model.BaseSchedule, d model.Date) bool {
	if !s.IsRepeating {
		return false
	}
	if d.Before(s.Date) {
		return false
	}
	if !s.RepeatEndDate.IsZero() && d.After(s.RepeatEndDate) {
		return false
	}
	return s.RepeatDays.Has(d.WeekdayIndex())
}

type dedupKey struct {
	date            string
	start, end      string
	busID, driverID string
}

func keyOf(s model.BaseSchedule) dedupKey {
	return dedupKey{date: s.Date.String(), start: s.StartTime, end: s.EndTime, busID: s.BusID, driverID: s.DriverID}
}

// Expand returns every base schedule plus one instance per occurrence of each
// repeating schedule inside [from, to]. An occurrence identical in date, times,
// bus and driver to an entry already present is skipped, which keeps the
// anchor date of a repeating schedule from appearing twice.
//
// The result is sorted by date, start time and key and depends only on the
// arguments.
func Expand(base []model.BaseSchedule, from, to model.Date) []Entry {
	out := make([]Entry, 0, len(base))
	seen := make(map[dedupKey]struct{}, len(base))
	for _, s := range base {
		out = append(out, Entry{Ref: BaseRef(s.ID), Schedule: s})
		seen[keyOf(s)] = struct{}{}
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		sortEntries(out)
		return out
	}
	for _, s := range base {
		if !s.IsRepeating {
			continue
		}
		for d := from; !d.After(to); d = d.AddDays(1) {
			if !Occurs(s, d) {
				continue
			}
			inst := s.OnDate(d)
			k := keyOf(inst)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, Entry{Ref: InstanceRef(s.ID, d), Schedule: inst})
		}
	}
	sortEntries(out)
	return out
}

// InWindow filters entries to those dated inside [from, to].
func InWindow(entries []Entry, from, to model.Date) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Schedule.Date.Before(from) || e.Schedule.Date.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func sortEntries(list []Entry) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.Schedule.Date.Equal(b.Schedule.Date) {
			return a.Schedule.Date.Before(b.Schedule.Date)
		}
		if a.Schedule.StartTime != b.Schedule.StartTime {
			return a.Schedule.StartTime < b.Schedule.StartTime
		}
		return a.Ref.Key() < b.Ref.Key()
	})
}
