// Package schedules exposes the planning service over HTTP as JSON.
package schedules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/opsplan/core/model"
	"github.com/kilianp07/opsplan/core/plan"
	"github.com/kilianp07/opsplan/core/recurrence"
	"github.com/kilianp07/opsplan/core/report"
)

// Service is the part of plan.Service the handlers use.
type Service interface {
	Config() plan.Config
	Expand(ctx context.Context, from, to model.Date) ([]recurrence.Entry, error)
	FindConflicts(ctx context.Context, candidate model.BaseSchedule) ([]plan.Issue, error)
	ValidateAndCommit(ctx context.Context, req plan.Request) (model.BaseSchedule, error)
}

// EntryView is the JSON form of an expanded schedule.
//
// Key identifies the entry within one listing and is for display only: it is
// not a schedule id. Mutations address the stored record through
// /api/schedules/{original_schedule_id}, and a derived occurrence through
// the same path with ?instance=<instance_date>.
type EntryView struct {
	Key                 string             `json:"key"`
	OriginalScheduleID  string             `json:"original_schedule_id"`
	IsRepeatingInstance bool               `json:"is_repeating_instance"`
	InstanceDate        string             `json:"instance_date,omitempty"`
	Schedule            model.BaseSchedule `json:"schedule"`
}

// ListResponse is returned by GET /api/schedules.
type ListResponse struct {
	From    model.Date  `json:"from"`
	To      model.Date  `json:"to"`
	Entries []EntryView `json:"entries"`
}

// ErrorResponse describes a rejected request.
type ErrorResponse struct {
	Reason string       `json:"reason"`
	Error  string       `json:"error"`
	Issues []plan.Issue `json:"issues,omitempty"`
}

// ConflictResponse is returned by POST /api/conflicts.
type ConflictResponse struct {
	HasErrors bool         `json:"has_errors"`
	Issues    []plan.Issue `json:"issues"`
}

type copyRequest struct {
	Date model.Date `json:"date"`
}

// ViewRequest moves the shared view.
type ViewRequest struct {
	Mode   plan.ViewMode `json:"mode,omitempty"`
	Anchor model.Date    `json:"anchor"`
}

// NewHandler registers the schedule routes on a new ServeMux. When view is
// non-nil the cached window is served on /api/view.
func NewHandler(svc Service, view *plan.View) http.Handler {
	h := &handler{svc: svc, view: view, now: time.Now}
	mux := http.NewServeMux()
	if view != nil {
		mux.HandleFunc("GET /api/view", h.getView)
		mux.HandleFunc("PUT /api/view", h.moveView)
	}
	mux.HandleFunc("GET /api/schedules", h.list)
	mux.HandleFunc("POST /api/schedules", h.create)
	mux.HandleFunc("PUT /api/schedules/{id}", h.update)
	mux.HandleFunc("DELETE /api/schedules/{id}", h.remove)
	mux.HandleFunc("POST /api/schedules/{id}/copy", h.copy)
	mux.HandleFunc("POST /api/conflicts", h.conflicts)
	mux.HandleFunc("GET /api/reports/utilization", h.utilization)
	return mux
}

type handler struct {
	svc  Service
	view *plan.View
	now  func() time.Time
}

// window resolves from/to query parameters, falling back to the view
// window (mode, anchor) around today.
func (h *handler) window(r *http.Request) (model.Date, model.Date, error) {
	q := r.URL.Query()
	if q.Get("from") != "" || q.Get("to") != "" {
		from, err := model.ParseDate(q.Get("from"))
		if err != nil {
			return model.Date{}, model.Date{}, err
		}
		to, err := model.ParseDate(q.Get("to"))
		if err != nil {
			return model.Date{}, model.Date{}, err
		}
		if to.Before(from) {
			return model.Date{}, model.Date{}, errors.New("to is before from")
		}
		if limit := h.svc.Config().MaxWindowDays; limit > 0 && from.DaysUntil(to)+1 > limit {
			return model.Date{}, model.Date{}, fmt.Errorf("window spans more than %d days", limit)
		}
		return from, to, nil
	}
	mode := h.svc.Config().ViewMode
	if m := q.Get("mode"); m != "" {
		mode = plan.ViewMode(m)
		if mode != plan.ViewWeek && mode != plan.ViewMonth {
			return model.Date{}, model.Date{}, errors.New("mode must be week or month")
		}
	}
	anchor := model.DateOf(h.now())
	if a := q.Get("anchor"); a != "" {
		d, err := model.ParseDate(a)
		if err != nil {
			return model.Date{}, model.Date{}, err
		}
		anchor = d
	}
	from, to := plan.Window(mode, anchor)
	return from, to, nil
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.window(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entries, err := h.svc.Expand(r.Context(), from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(from, to, entries))
}

func (h *handler) getView(w http.ResponseWriter, _ *http.Request) {
	from, to := h.view.Range()
	writeJSON(w, http.StatusOK, listResponse(from, to, h.view.Entries()))
}

func (h *handler) moveView(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Mode != "" {
		if req.Mode != plan.ViewWeek && req.Mode != plan.ViewMonth {
			http.Error(w, "mode must be week or month", http.StatusBadRequest)
			return
		}
		h.view.SetMode(req.Mode)
	}
	if !req.Anchor.IsZero() {
		h.view.SetAnchor(req.Anchor)
	}
	if err := h.view.Refresh(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.getView(w, r)
}

func listResponse(from, to model.Date, entries []recurrence.Entry) ListResponse {
	resp := ListResponse{From: from, To: to, Entries: make([]EntryView, 0, len(entries))}
	for _, e := range entries {
		v := EntryView{
			Key:                 e.Ref.Key(),
			OriginalScheduleID:  e.OriginalScheduleID(),
			IsRepeatingInstance: e.IsRepeatingInstance(),
			Schedule:            e.Schedule,
		}
		if v.IsRepeatingInstance {
			v.InstanceDate = e.Ref.Date.String()
		}
		resp.Entries = append(resp.Entries, v)
	}
	return resp
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var s model.BaseSchedule
	if !decode(w, r, &s) {
		return
	}
	out, err := h.svc.ValidateAndCommit(r.Context(), plan.Request{Op: plan.OpAdd, Schedule: s, Confirm: confirmFrom(r)})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	var s model.BaseSchedule
	if !decode(w, r, &s) {
		return
	}
	target, err := refFrom(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.ID = target.ScheduleID
	out, err := h.svc.ValidateAndCommit(r.Context(), plan.Request{Op: plan.OpUpdate, Schedule: s, Target: target, Confirm: confirmFrom(r)})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) remove(w http.ResponseWriter, r *http.Request) {
	target, err := refFrom(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := h.svc.ValidateAndCommit(r.Context(), plan.Request{Op: plan.OpDelete, Target: target}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) copy(w http.ResponseWriter, r *http.Request) {
	var body copyRequest
	if !decode(w, r, &body) {
		return
	}
	if body.Date.IsZero() {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}
	target, err := refFrom(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	out, err := h.svc.ValidateAndCommit(r.Context(), plan.Request{Op: plan.OpCopy, Target: target, CopyDate: body.Date, Confirm: confirmFrom(r)})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *handler) conflicts(w http.ResponseWriter, r *http.Request) {
	var s model.BaseSchedule
	if !decode(w, r, &s) {
		return
	}
	issues, err := h.svc.FindConflicts(r.Context(), s)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if issues == nil {
		issues = []plan.Issue{}
	}
	writeJSON(w, http.StatusOK, ConflictResponse{HasErrors: plan.HasErrors(issues), Issues: issues})
}

func (h *handler) utilization(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.window(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entries, err := h.svc.Expand(r.Context(), from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, report.Build(entries, from, to))
}

// refFrom reads the target from the path id and the optional "instance"
// query parameter holding the occurrence date.
func refFrom(r *http.Request) (recurrence.Ref, error) {
	id := r.PathValue("id")
	inst := r.URL.Query().Get("instance")
	if inst == "" {
		return recurrence.BaseRef(id), nil
	}
	d, err := model.ParseDate(inst)
	if err != nil {
		return recurrence.Ref{}, err
	}
	return recurrence.InstanceRef(id, d), nil
}

func confirmFrom(r *http.Request) plan.ConfirmFunc {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if !ok {
		return nil
	}
	return plan.AlwaysConfirm
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// StatusFor maps a mutation error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, plan.ErrRouteHoursWarning),
		errors.Is(err, plan.ErrBookingConflict),
		errors.Is(err, plan.ErrExternalConflict):
		return http.StatusConflict
	case errors.Is(err, plan.ErrMissingField),
		errors.Is(err, plan.ErrInvalidTimeOrder),
		errors.Is(err, plan.ErrInvalidRecurrence),
		errors.Is(err, plan.ErrUnknownReference):
		return http.StatusUnprocessableEntity
	case errors.Is(err, plan.ErrDeleteOnVirtualInstance),
		errors.Is(err, plan.ErrEditOnVirtualInstance):
		return http.StatusBadRequest
	case errors.Is(err, plan.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, plan.ErrCommitFailure):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var rej *plan.Rejection
	if errors.As(err, &rej) {
		resp.Reason = rej.Reason.Code
		resp.Issues = rej.Issues
	}
	writeJSON(w, StatusFor(err), resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
