package plan

import (
	"fmt"
	"strings"
)

// Reason is a rejection category. Reasons are compared by identity, so the
// exported values work with errors.Is.
type Reason struct {
	Code string
	msg  string
	soft bool
}

func (r *Reason) Error() string { return r.msg }

// Soft reports whether the user may override the reason by confirming.
func (r *Reason) Soft() bool { return r.soft }

var (
	ErrMissingField            = &Reason{Code: "missing_field", msg: "required field missing"}
	ErrInvalidTimeOrder        = &Reason{Code: "invalid_time_order", msg: "end time must be after start time"}
	ErrInvalidRecurrence       = &Reason{Code: "invalid_recurrence", msg: "invalid recurrence"}
	ErrUnknownReference        = &Reason{Code: "unknown_reference", msg: "unknown bus, driver or route"}
	ErrRouteHoursWarning       = &Reason{Code: "route_hours_warning", msg: "outside route operating hours", soft: true}
	ErrExternalConflict        = &Reason{Code: "external_conflict", msg: "bus reserved by another company"}
	ErrBookingConflict         = &Reason{Code: "booking_conflict", msg: "bus or driver already booked"}
	ErrDeleteOnVirtualInstance = &Reason{Code: "delete_on_virtual_instance", msg: "repeating instances cannot be deleted; delete the base schedule"}
	ErrEditOnVirtualInstance   = &Reason{Code: "edit_on_virtual_instance", msg: "repeating instances cannot be edited; edit the base schedule"}
	ErrNotFound                = &Reason{Code: "not_found", msg: "schedule not found"}
	ErrCommitFailure           = &Reason{Code: "commit_failure", msg: "schedule store error"}
)

// Rejection is returned when a mutation is not committed.
type Rejection struct {
	Op     Op
	Reason *Reason
	Issues []Issue
	// Err is the underlying store error for ErrCommitFailure.
	Err error
}

func (r *Rejection) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s rejected: %s", r.Op, r.Reason.msg)
	if r.Err != nil {
		fmt.Fprintf(&b, ": %v", r.Err)
		return b.String()
	}
	for _, is := range r.Issues {
		if is.Reason == r.Reason && is.Message != "" {
			fmt.Fprintf(&b, "; %s", is.Message)
		}
	}
	return b.String()
}

// Unwrap exposes both the reason and the underlying error to errors.Is.
func (r *Rejection) Unwrap() []error {
	errs := []error{r.Reason}
	if r.Err != nil {
		errs = append(errs, r.Err)
	}
	return errs
}

func reject(op Op, reason *Reason, issues []Issue) *Rejection {
	return &Rejection{Op: op, Reason: reason, Issues: issues}
}
