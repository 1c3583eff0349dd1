package model

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestWeekdayIndexMondayFirst(t *testing.T) {
	cases := map[string]int{
		"2025-04-07": 0, // Monday
		"2025-04-09": 2,
		"2025-04-13": 6, // Sunday
	}
	for s, want := range cases {
		if got := MustDate(s).WeekdayIndex(); got != want {
			t.Fatalf("%s: expected %d got %d", s, want, got)
		}
	}
}

func TestDateArithmetic(t *testing.T) {
	d := MustDate("2025-04-28")
	if got := d.AddDays(3).String(); got != "2025-05-01" {
		t.Fatalf("add days: %s", got)
	}
	if n := MustDate("2025-04-01").DaysUntil(MustDate("2025-04-30")); n != 29 {
		t.Fatalf("days until: %d", n)
	}
	if !d.After(MustDate("2025-04-27")) || d.Before(MustDate("2025-04-27")) {
		t.Fatalf("ordering broken")
	}
}

func TestScheduleJSON(t *testing.T) {
	s := BaseSchedule{
		ID: "s1", BusID: "b1", DriverID: "d1", RouteID: "r1",
		Date: MustDate("2025-04-07"), StartTime: "09:00", EndTime: "11:00",
		IsRepeating: true, RepeatDays: NewWeekdaySet(0, 4), RepeatEndDate: MustDate("2025-04-28"),
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out BaseSchedule
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != s {
		t.Fatalf("mismatch %#v", out)
	}
}

func TestScheduleJSONNullEndDate(t *testing.T) {
	var s BaseSchedule
	if err := json.Unmarshal([]byte(`{"date":"2025-04-07","repeat_days":[],"repeat_end_date":null}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !s.RepeatEndDate.IsZero() || !s.RepeatDays.Empty() {
		t.Fatalf("expected empty recurrence %#v", s)
	}
}

func TestWeekdaySetRejectsOutOfRange(t *testing.T) {
	var s WeekdaySet
	if err := json.Unmarshal([]byte(`[0,7]`), &s); err == nil {
		t.Fatalf("expected error")
	}
	if err := yaml.Unmarshal([]byte(`[1, 3]`), &s); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !s.Has(1) || !s.Has(3) || s.Has(0) {
		t.Fatalf("bad set %v", s.Days())
	}
}

func TestClearRecurrence(t *testing.T) {
	s := BaseSchedule{IsRepeating: true, RepeatDays: NewWeekdaySet(1), RepeatEndDate: MustDate("2025-05-01")}
	s.ClearRecurrence()
	if s.IsRepeating || !s.RepeatDays.Empty() || !s.RepeatEndDate.IsZero() {
		t.Fatalf("recurrence not cleared %#v", s)
	}
}
