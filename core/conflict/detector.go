// Package conflict detects double bookings of buses and drivers and clashes
// with bus reservations held by other organizations. All comparisons are
// made on normalized minute intervals of the same calendar date and use the
// endpoint-inclusive overlap test of package timeslot.
package conflict

import (
	"fmt"

	"github.com/kilianp07/opsplan/core/model"
	"github.com/kilianp07/opsplan/core/timeslot"
)

// Kind classifies a conflict.
type Kind string

const (
	KindBus      Kind = "bus"
	KindDriver   Kind = "driver"
	KindExternal Kind = "external"
)

// Candidate is the assignment being checked.
type Candidate struct {
	// ExcludeID is the id of the schedule being edited. Entries originating
	// from it are ignored.
	ExcludeID string
	BusID     string
	BusNumber string
	DriverID  string
	Date      model.Date
	StartTime string
	EndTime   string
}

// CandidateFrom builds a Candidate from a schedule. busNumber may be empty
// when the bus is unknown, in which case no external check can match.
func CandidateFrom(s model.BaseSchedule, busNumber string) Candidate {
	return Candidate{
		ExcludeID: s.ID,
		BusID:     s.BusID,
		BusNumber: busNumber,
		DriverID:  s.DriverID,
		Date:      s.Date,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
	}
}

// Existing is a schedule already booked on some date. OriginID names the
// base record it comes from and equals Schedule.ID for non-repeating entries.
type Existing struct {
	OriginID string
	Schedule model.BaseSchedule
}

// Conflict describes one clash.
type Conflict struct {
	Kind       Kind                         `json:"kind"`
	Date       model.Date                   `json:"date"`
	ScheduleID string                       `json:"schedule_id,omitempty"`
	Window     string                       `json:"window"`
	External   *model.ExternalBusAssignment `json:"external,omitempty"`
}

func (c Conflict) String() string {
	switch c.Kind {
	case KindExternal:
		return fmt.Sprintf("bus %s reserved by %s on %s %s", c.External.BusNumber, c.External.Company, c.Date, c.Window)
	default:
		return fmt.Sprintf("%s already booked by schedule %s on %s %s", c.Kind, c.ScheduleID, c.Date, c.Window)
	}
}

// Report groups the conflicts found for one candidate.
type Report struct {
	Booking  []Conflict `json:"booking"`
	External []Conflict `json:"external"`
}

func (r Report) HasConflicts() bool { return len(r.Booking) > 0 || len(r.External) > 0 }

// Merge appends the conflicts of o to r.
func (r *Report) Merge(o Report) {
	r.Booking = append(r.Booking, o.Booking...)
	r.External = append(r.External, o.External...)
}

// FindConflicts runs both the booking and the external-company checks.
func FindConflicts(c Candidate, existing []Existing, externals []model.ExternalBusAssignment) (Report, error) {
	iv, err := timeslot.Parse(c.StartTime, c.EndTime)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Booking:  bookingConflicts(c, iv, existing),
		External: externalConflicts(c, iv, externals),
	}, nil
}

func bookingConflicts(c Candidate, iv timeslot.Interval, existing []Existing) []Conflict {
	var out []Conflict
	for _, e := range existing {
		s := e.Schedule
		if c.ExcludeID != "" && e.OriginID == c.ExcludeID {
			continue
		}
		if !s.Date.Equal(c.Date) {
			continue
		}
		sameBus := c.BusID != "" && s.BusID == c.BusID
		sameDriver := c.DriverID != "" && s.DriverID == c.DriverID
		if !sameBus && !sameDriver {
			continue
		}
		other, err := timeslot.Parse(s.StartTime, s.EndTime)
		if err != nil || !timeslot.Overlaps(other, iv) {
			continue
		}
		base := Conflict{Date: s.Date, ScheduleID: e.OriginID, Window: other.String()}
		if sameBus {
			bc := base
			bc.Kind = KindBus
			out = append(out, bc)
		}
		if sameDriver {
			dc := base
			dc.Kind = KindDriver
			out = append(out, dc)
		}
	}
	return out
}

func externalConflicts(c Candidate, iv timeslot.Interval, externals []model.ExternalBusAssignment) []Conflict {
	if c.BusNumber == "" {
		return nil
	}
	var out []Conflict
	for i := range externals {
		x := externals[i]
		if x.BusNumber != c.BusNumber || !x.Date.Equal(c.Date) {
			continue
		}
		other, err := timeslot.Parse(x.StartTime, x.EndTime)
		if err != nil || !timeslot.Overlaps(other, iv) {
			continue
		}
		out = append(out, Conflict{Kind: KindExternal, Date: x.Date, Window: other.String(), External: &x})
	}
	return out
}
