package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/opsplan/core/model"
	"github.com/kilianp07/opsplan/core/plan"
)

// errConflicts is returned by check when the candidate cannot be committed.
var errConflicts = errors.New("candidate has blocking issues")

var checkCmd = &cobra.Command{
	Use:   "check <candidate.json>",
	Short: "Check a candidate schedule for conflicts without saving it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var candidate model.BaseSchedule
	if err := json.Unmarshal(data, &candidate); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}
	svc, closeFn, err := openPlan(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()
	issues, err := svc.FindConflicts(cmd.Context(), candidate)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(issues) == 0 {
		_, err := fmt.Fprintln(out, "ok")
		return err
	}
	for _, is := range issues {
		if _, err := fmt.Fprintf(out, "%s %s: %s\n", is.Severity, is.Reason.Code, is.Message); err != nil {
			return err
		}
	}
	if plan.HasErrors(issues) {
		return errConflicts
	}
	return nil
}
