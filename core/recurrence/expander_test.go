package recurrence

import (
	"reflect"
	"testing"

	"github.com/kilianp07/opsplan/core/model"
)

func weeklyMonday() model.BaseSchedule {
	return model.BaseSchedule{
		ID: "s1", BusID: "b108", DriverID: "d1", RouteID: "r1",
		Date: model.MustDate("2025-04-07"), StartTime: "09:00", EndTime: "11:00",
		IsRepeating: true, RepeatDays: model.NewWeekdaySet(0), RepeatEndDate: model.MustDate("2025-04-28"),
	}
}

func TestExpandWeeklyWithinBounds(t *testing.T) {
	base := []model.BaseSchedule{weeklyMonday()}
	out := Expand(base, model.MustDate("2025-04-01"), model.MustDate("2025-04-30"))

	var dates []string
	for _, e := range out {
		dates = append(dates, e.Schedule.Date.String())
	}
	want := []string{"2025-04-07", "2025-04-14", "2025-04-21", "2025-04-28"}
	if !reflect.DeepEqual(dates, want) {
		t.Fatalf("expected %v got %v", want, dates)
	}
	// The anchor date is the base record itself, not a duplicate instance.
	if out[0].IsRepeatingInstance() {
		t.Fatalf("anchor should be the base entry")
	}
	for _, e := range out[1:] {
		if !e.IsRepeatingInstance() || e.OriginalScheduleID() != "s1" {
			t.Fatalf("bad instance %#v", e)
		}
		if e.Schedule.BusID != "b108" || e.Schedule.StartTime != "09:00" {
			t.Fatalf("fields not copied %#v", e.Schedule)
		}
	}
	if out[1].Ref.Key() != "s1-2025-04-14" {
		t.Fatalf("unexpected key %s", out[1].Ref.Key())
	}
}

func TestExpandNoEndDate(t *testing.T) {
	s := weeklyMonday()
	s.RepeatEndDate = model.Date{}
	s.RepeatDays = model.NewWeekdaySet(0, 2)
	out := Expand([]model.BaseSchedule{s}, model.MustDate("2025-04-01"), model.MustDate("2025-04-16"))
	// base 04-07 + 04-09, 04-14, 04-16
	if len(out) != 4 {
		t.Fatalf("expected 4 entries got %d", len(out))
	}
}

func TestExpandWindowBeforeAnchor(t *testing.T) {
	out := Expand([]model.BaseSchedule{weeklyMonday()}, model.MustDate("2025-03-01"), model.MustDate("2025-03-31"))
	if len(out) != 1 || out[0].IsRepeatingInstance() {
		t.Fatalf("only the base entry expected, got %#v", out)
	}
}

func TestExpandNonRepeatingUntouched(t *testing.T) {
	s := model.BaseSchedule{ID: "s2", BusID: "b1", DriverID: "d1", Date: model.MustDate("2025-04-10"), StartTime: "08:00", EndTime: "09:00"}
	base := []model.BaseSchedule{s}
	out := Expand(base, model.MustDate("2025-04-01"), model.MustDate("2025-04-30"))
	if len(out) != 1 || out[0].Schedule != s {
		t.Fatalf("unexpected %#v", out)
	}
	if base[0] != s {
		t.Fatalf("input mutated")
	}
}

func TestExpandDeduplicatesIdenticalEntries(t *testing.T) {
	s := weeklyMonday()
	dup := s
	dup.ID = "s9"
	dup.IsRepeating = false
	dup.RepeatDays = 0
	dup.RepeatEndDate = model.Date{}
	dup.Date = model.MustDate("2025-04-14")
	out := Expand([]model.BaseSchedule{s, dup}, model.MustDate("2025-04-01"), model.MustDate("2025-04-30"))
	count := 0
	for _, e := range out {
		if e.Schedule.Date.String() == "2025-04-14" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected a single 04-14 entry, got %d", count)
	}
}

func TestExpandIdempotent(t *testing.T) {
	other := weeklyMonday()
	other.ID = "s3"
	other.BusID = "b200"
	other.StartTime = "07:00"
	other.RepeatDays = model.NewWeekdaySet(0, 1, 2, 3, 4)
	base := []model.BaseSchedule{weeklyMonday(), other}
	a := Expand(base, model.MustDate("2025-04-01"), model.MustDate("2025-04-30"))
	b := Expand([]model.BaseSchedule{other, weeklyMonday()}, model.MustDate("2025-04-01"), model.MustDate("2025-04-30"))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expansion not deterministic")
	}
	if !reflect.DeepEqual(a, Expand(base, model.MustDate("2025-04-01"), model.MustDate("2025-04-30"))) {
		t.Fatalf("expansion not idempotent")
	}
}

func TestArenaResolve(t *testing.T) {
	s := weeklyMonday()
	a := NewArena([]model.BaseSchedule{s})
	got, ok := a.Resolve(InstanceRef("s1", model.MustDate("2025-04-21")))
	if !ok || got.Date.String() != "2025-04-21" || got.ID != "s1" {
		t.Fatalf("resolve instance: %v %#v", ok, got)
	}
	if _, ok := a.Resolve(InstanceRef("s1", model.MustDate("2025-04-22"))); ok {
		t.Fatalf("tuesday is not an occurrence")
	}
	if _, ok := a.Resolve(BaseRef("missing")); ok {
		t.Fatalf("missing id resolved")
	}
	origin, ok := a.Origin(InstanceRef("s1", model.MustDate("2025-04-21")))
	if !ok || origin.Date.String() != "2025-04-07" {
		t.Fatalf("origin: %#v", origin)
	}
}

func TestInWindow(t *testing.T) {
	out := Expand([]model.BaseSchedule{weeklyMonday()}, model.MustDate("2025-04-01"), model.MustDate("2025-04-30"))
	in := InWindow(out, model.MustDate("2025-04-10"), model.MustDate("2025-04-20"))
	if len(in) != 1 || in[0].Schedule.Date.String() != "2025-04-14" {
		t.Fatalf("unexpected window %#v", in)
	}
}
