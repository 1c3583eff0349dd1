// Package timeslot converts wall-clock times to minute-of-day intervals and
// compares them. Intervals whose end is earlier than their start are taken
// to cross midnight and are normalized by pushing the end past 1440.
package timeslot

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the length of a calendar day in minutes.
const MinutesPerDay = 24 * 60

// Interval is a normalized minute interval. End may exceed MinutesPerDay when
// the original window wrapped midnight.
type Interval struct {
	Start int
	End   int
}

// ToMinutes parses "HH:MM" (seconds, if present, are ignored) into a minute
// of day in [0, 1440). Hours and minutes must be exactly two digits so that
// time strings order the same lexically and numerically.
func ToMinutes(hhmm string) (int, error) {
	parts := strings.Split(strings.TrimSpace(hhmm), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	if !twoDigits(parts[0]) {
		return 0, fmt.Errorf("invalid hour in %q", hhmm)
	}
	h, _ := strconv.Atoi(parts[0])
	if h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", hhmm)
	}
	if !twoDigits(parts[1]) {
		return 0, fmt.Errorf("invalid minute in %q", hhmm)
	}
	m, _ := strconv.Atoi(parts[1])
	if m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", hhmm)
	}
	if len(parts) == 3 && !twoDigits(parts[2]) {
		return 0, fmt.Errorf("invalid seconds in %q", hhmm)
	}
	return h*60 + m, nil
}

func twoDigits(s string) bool {
	return len(s) == 2 && s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}

// Format renders a minute of day as "HH:MM". Values past midnight wrap.
func Format(min int) string {
	min = ((min % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// Normalize returns the interval for start/end minute values, adding a day to
// end when end < start.
func Normalize(start, end int) Interval {
	if end < start {
		end += MinutesPerDay
	}
	return Interval{Start: start, End: end}
}

// Parse converts a pair of "HH:MM" strings into a normalized Interval.
func Parse(start, end string) (Interval, error) {
	s, err := ToMinutes(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ToMinutes(end)
	if err != nil {
		return Interval{}, err
	}
	return Normalize(s, e), nil
}

// Wraps reports whether the interval crosses midnight.
func (i Interval) Wraps() bool { return i.End >= MinutesPerDay }

func (i Interval) Minutes() int { return i.End - i.Start }

func (i Interval) String() string {
	return Format(i.Start) + "-" + Format(i.End)
}

// Overlaps reports whether a and b share at least one minute, endpoints
// included: intervals that only touch are overlapping.
func Overlaps(a, b Interval) bool {
	startsInside := b.Start >= a.Start && b.Start <= a.End
	endsInside := b.End >= a.Start && b.End <= a.End
	covers := b.Start <= a.Start && b.End >= a.End
	return startsInside || endsInside || covers
}
