package audit

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kilianp07/opsplan/core/planlog"
)

// NewLogHandler serves the mutation audit trail on GET /api/audit/logs.
// When token is non-empty requests must carry "Authorization: Bearer <token>".
// Supported filters: start, end (RFC3339), op, outcome and schedule_id.
func NewLogHandler(store planlog.LogStore, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []planlog.LogRecord{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func parseQuery(r *http.Request) (planlog.LogQuery, error) {
	v := r.URL.Query()
	q := planlog.LogQuery{
		Op:         v.Get("op"),
		Outcome:    v.Get("outcome"),
		ScheduleID: v.Get("schedule_id"),
	}
	if s := v.Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, err
		}
		q.Start = t
	}
	if s := v.Get("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, err
		}
		q.End = t
	}
	return q, nil
}
