// Package export writes expanded schedules for spreadsheets and other tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/opsplan/core/recurrence"
)

var csvHeader = []string{"key", "original_schedule_id", "is_repeating_instance", "date", "start_time", "end_time", "bus_id", "driver_id", "route_id"}

// WriteJSON writes entries to w as an indented JSON array.
func WriteJSON(w io.Writer, entries []recurrence.Entry) error {
	if entries == nil {
		entries = []recurrence.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// WriteCSV writes entries to w, one row per day-concrete schedule.
func WriteCSV(w io.Writer, entries []recurrence.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		s := e.Schedule
		rec := []string{
			e.Ref.Key(),
			e.OriginalScheduleID(),
			strconv.FormatBool(e.IsRepeatingInstance()),
			s.Date.String(),
			s.StartTime,
			s.EndTime,
			s.BusID,
			s.DriverID,
			s.RouteID,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
