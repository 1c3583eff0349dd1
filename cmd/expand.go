package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/opsplan/core/model"
	"github.com/kilianp07/opsplan/core/plan"
	"github.com/kilianp07/opsplan/core/report"
	"github.com/kilianp07/opsplan/pkg/export"
)

var (
	fromFlag   string
	toFlag     string
	jsonOutput bool
	csvOutput  bool
)

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "List schedules with repeating instances over a date range",
	RunE:  runExpand,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print bus and driver utilization over a date range",
	RunE:  runReport,
}

func init() {
	for _, c := range []*cobra.Command{expandCmd, reportCmd} {
		c.Flags().StringVar(&fromFlag, "from", "", "first day (YYYY-MM-DD), defaults to the current view window")
		c.Flags().StringVar(&toFlag, "to", "", "last day (YYYY-MM-DD)")
		c.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
		rootCmd.AddCommand(c)
	}
	expandCmd.Flags().BoolVar(&csvOutput, "csv", false, "print CSV")
}

func dateRange(mode plan.ViewMode) (model.Date, model.Date, error) {
	from, to := plan.Window(mode, model.DateOf(time.Now()))
	var err error
	if fromFlag != "" {
		if from, err = model.ParseDate(fromFlag); err != nil {
			return from, to, fmt.Errorf("--from: %w", err)
		}
		if toFlag == "" {
			_, to = plan.Window(mode, from)
		}
	}
	if toFlag != "" {
		if to, err = model.ParseDate(toFlag); err != nil {
			return from, to, fmt.Errorf("--to: %w", err)
		}
	}
	if to.Before(from) {
		return from, to, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return from, to, nil
}

func runExpand(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openPlan(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()
	from, to, err := dateRange(svc.Config().ViewMode)
	if err != nil {
		return err
	}
	entries, err := svc.Expand(cmd.Context(), from, to)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return export.WriteJSON(out, entries)
	case csvOutput:
		return export.WriteCSV(out, entries)
	}
	for _, e := range entries {
		s := e.Schedule
		if _, err := fmt.Fprintf(out, "%s %s-%s bus=%s driver=%s route=%s %s\n",
			s.Date, s.StartTime, s.EndTime, s.BusID, s.DriverID, s.RouteID, e.Ref.Key()); err != nil {
			return err
		}
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openPlan(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()
	from, to, err := dateRange(svc.Config().ViewMode)
	if err != nil {
		return err
	}
	entries, err := svc.Expand(cmd.Context(), from, to)
	if err != nil {
		return err
	}
	rep := report.Build(entries, from, to)
	out := cmd.OutOrStdout()
	if jsonOutput {
		return json.NewEncoder(out).Encode(rep)
	}
	if _, err := fmt.Fprintf(out, "%s..%s (%d days)\n", rep.From, rep.To, rep.Days); err != nil {
		return err
	}
	for _, group := range []struct {
		name  string
		usage []report.Usage
	}{{"bus", rep.Buses}, {"driver", rep.Drivers}} {
		for _, u := range group.usage {
			if _, err := fmt.Fprintf(out, "%s %s total=%dmin active_days=%d mean=%.1f stddev=%.1f\n",
				group.name, u.ID, u.TotalMinutes, u.ActiveDays, u.MeanDaily, u.StdDevDaily); err != nil {
				return err
			}
		}
	}
	return nil
}
