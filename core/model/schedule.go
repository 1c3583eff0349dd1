package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// WeekdaySet is a set of Monday-based weekday indexes (0..6).
type WeekdaySet uint8

// NewWeekdaySet builds a set from weekday indexes. Out of range values are ignored.
func NewWeekdaySet(days ...int) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// With returns the set with day added.
func (s WeekdaySet) With(day int) WeekdaySet {
	if day < 0 || day > 6 {
		return s
	}
	return s | 1<<uint(day)
}

// Has reports whether day belongs to the set.
func (s WeekdaySet) Has(day int) bool {
	if day < 0 || day > 6 {
		return false
	}
	return s&(1<<uint(day)) != 0
}

func (s WeekdaySet) Empty() bool { return s&0x7f == 0 }

// Days lists the members in ascending order.
func (s WeekdaySet) Days() []int {
	out := make([]int, 0, 7)
	for d := 0; d < 7; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Days())
}

func (s *WeekdaySet) UnmarshalJSON(b []byte) error {
	var days []int
	if err := json.Unmarshal(b, &days); err != nil {
		return err
	}
	set, err := weekdaySetFrom(days)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// MarshalYAML encodes the set as a list of indexes.
func (s WeekdaySet) MarshalYAML() (any, error) { return s.Days(), nil }

// UnmarshalYAML decodes a list of indexes.
func (s *WeekdaySet) UnmarshalYAML(unmarshal func(any) error) error {
	var days []int
	if err := unmarshal(&days); err != nil {
		return err
	}
	set, err := weekdaySetFrom(days)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

func weekdaySetFrom(days []int) (WeekdaySet, error) {
	var s WeekdaySet
	for _, d := range days {
		if d < 0 || d > 6 {
			return 0, fmt.Errorf("weekday index %d out of range 0..6", d)
		}
		s = s.With(d)
	}
	return s, nil
}

// BaseSchedule is a persisted driver/bus/route assignment, possibly repeating.
// StartTime and EndTime are wall-clock "HH:MM" strings.
type BaseSchedule struct {
	ID            string     `json:"id" yaml:"id"`
	DriverID      string     `json:"driver_id" yaml:"driver_id"`
	BusID         string     `json:"bus_id" yaml:"bus_id"`
	RouteID       string     `json:"route_id" yaml:"route_id"`
	Date          Date       `json:"date" yaml:"date"`
	StartTime     string     `json:"start_time" yaml:"start_time"`
	EndTime       string     `json:"end_time" yaml:"end_time"`
	IsRepeating   bool       `json:"is_repeating" yaml:"is_repeating"`
	RepeatDays    WeekdaySet `json:"repeat_days" yaml:"repeat_days"`
	RepeatEndDate Date       `json:"repeat_end_date" yaml:"repeat_end_date"`
}

// ClearRecurrence drops the repeating fields so the record describes a single day.
func (s *BaseSchedule) ClearRecurrence() {
	s.IsRepeating = false
	s.RepeatDays = 0
	s.RepeatEndDate = Date{}
}

// OnDate returns a copy of s re-dated to d.
func (s BaseSchedule) OnDate(d Date) BaseSchedule {
	s.Date = d
	return s
}

// SortSchedules orders schedules by date, start time and id.
func SortSchedules(list []BaseSchedule) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
}
