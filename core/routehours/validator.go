// Package routehours checks a schedule window against the daily operating
// window of its route. The result is advisory: callers turn a failure into
// a warning the user may confirm.
package routehours

import (
	"github.com/kilianp07/opsplan/core/model"
	"github.com/kilianp07/opsplan/core/timeslot"
)

// IsWithinRouteHours reports whether start-end fits inside the route's
// operating window. Unparseable times never fit.
func IsWithinRouteHours(route model.Route, start, end string) bool {
	rs, err := timeslot.ToMinutes(route.OperationStartTime)
	if err != nil {
		return false
	}
	re, err := timeslot.ToMinutes(route.OperationEndTime)
	if err != nil {
		return false
	}
	cs, err := timeslot.ToMinutes(start)
	if err != nil {
		return false
	}
	ce, err := timeslot.ToMinutes(end)
	if err != nil {
		return false
	}
	return fits(timeslot.Normalize(rs, re), cs, ce)
}

func fits(window timeslot.Interval, cs, ce int) bool {
	if ce < cs {
		// Overnight candidate: the start has to be inside the window, the end
		// may fall on the following day.
		return cs >= window.Start &&
			(ce <= window.End || window.Wraps() || ce <= window.End+timeslot.MinutesPerDay)
	}
	return cs >= window.Start && ce <= window.End
}

// Warning describes a failed route-hours check.
type Warning struct {
	RouteID     string `json:"route_id"`
	RouteName   string `json:"route_name"`
	RouteWindow string `json:"route_window"`
	Requested   string `json:"requested"`
}

// Check returns a Warning when the window falls outside the route's hours.
func Check(route model.Route, start, end string) *Warning {
	if IsWithinRouteHours(route, start, end) {
		return nil
	}
	return &Warning{
		RouteID:     route.ID,
		RouteName:   route.Name,
		RouteWindow: route.OperationStartTime + "-" + route.OperationEndTime,
		Requested:   start + "-" + end,
	}
}
