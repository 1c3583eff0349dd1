// Package report summarizes how busy buses and drivers are over a window of
// expanded schedules.
package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/opsplan/core/model"
	"github.com/kilianp07/opsplan/core/recurrence"
	"github.com/kilianp07/opsplan/core/timeslot"
)

// Usage is the load of one bus or driver.
type Usage struct {
	ID           string  `json:"id"`
	TotalMinutes int     `json:"total_minutes"`
	ActiveDays   int     `json:"active_days"`
	MeanDaily    float64 `json:"mean_daily_minutes"`
	StdDevDaily  float64 `json:"stddev_daily_minutes"`
}

// Utilization is the report for [From, To].
type Utilization struct {
	From    model.Date `json:"from"`
	To      model.Date `json:"to"`
	Days    int        `json:"days"`
	Buses   []Usage    `json:"buses"`
	Drivers []Usage    `json:"drivers"`
}

// Build computes per-bus and per-driver usage from entries dated inside
// [from, to]. Daily statistics cover every day of the window, idle days
// counting as zero. Entries with unparsable times are skipped.
func Build(entries []recurrence.Entry, from, to model.Date) Utilization {
	days := from.DaysUntil(to) + 1
	if days < 1 {
		days = 0
	}
	rep := Utilization{From: from, To: to, Days: days}
	if days == 0 {
		return rep
	}
	buses := map[string][]float64{}
	drivers := map[string][]float64{}
	for _, e := range recurrence.InWindow(entries, from, to) {
		iv, err := timeslot.Parse(e.Schedule.StartTime, e.Schedule.EndTime)
		if err != nil {
			continue
		}
		idx := from.DaysUntil(e.Schedule.Date)
		add(buses, e.Schedule.BusID, idx, days, iv.Minutes())
		add(drivers, e.Schedule.DriverID, idx, days, iv.Minutes())
	}
	rep.Buses = summarize(buses)
	rep.Drivers = summarize(drivers)
	return rep
}

func add(m map[string][]float64, id string, idx, days, minutes int) {
	if id == "" {
		return
	}
	series, ok := m[id]
	if !ok {
		series = make([]float64, days)
		m[id] = series
	}
	series[idx] += float64(minutes)
}

func summarize(m map[string][]float64) []Usage {
	out := make([]Usage, 0, len(m))
	for id, series := range m {
		u := Usage{ID: id}
		for _, v := range series {
			u.TotalMinutes += int(v)
			if v > 0 {
				u.ActiveDays++
			}
		}
		u.MeanDaily, u.StdDevDaily = stat.MeanStdDev(series, nil)
		if len(series) < 2 || math.IsNaN(u.StdDevDaily) {
			u.StdDevDaily = 0
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
