package plan

import (
	"context"
	"sync"
	"time"

	"github.com/kilianp07/opsplan/core/model"
	"github.com/kilianp07/opsplan/core/recurrence"
)

// ViewMode selects the display window of a View.
type ViewMode string

const (
	ViewWeek  ViewMode = "week"
	ViewMonth ViewMode = "month"
)

// Window returns the first and last day shown for anchor: Monday to Sunday
// for week mode, the calendar month for month mode.
func Window(mode ViewMode, anchor model.Date) (model.Date, model.Date) {
	if mode == ViewMonth {
		t := anchor.Time()
		first := model.NewDate(t.Year(), t.Month(), 1)
		last := model.NewDate(t.Year(), t.Month()+1, 1).AddDays(-1)
		return first, last
	}
	from := anchor.AddDays(-anchor.WeekdayIndex())
	return from, from.AddDays(6)
}

// Expander is the part of Service a View needs.
type Expander interface {
	Expand(ctx context.Context, from, to model.Date) ([]recurrence.Entry, error)
}

// View keeps the expanded schedules of the current display window.
type View struct {
	mu        sync.RWMutex
	src       Expander
	mode      ViewMode
	anchor    model.Date
	entries   []recurrence.Entry
	refreshed time.Time
}

// NewView returns a View over src anchored on anchor.
func NewView(src Expander, mode ViewMode, anchor model.Date) *View {
	if mode == "" {
		mode = ViewWeek
	}
	return &View{src: src, mode: mode, anchor: anchor}
}

// SetMode switches between week and month display.
func (v *View) SetMode(m ViewMode) {
	v.mu.Lock()
	v.mode = m
	v.mu.Unlock()
}

// SetAnchor moves the window to the one containing d.
func (v *View) SetAnchor(d model.Date) {
	v.mu.Lock()
	v.anchor = d
	v.mu.Unlock()
}

// Range returns the current window.
func (v *View) Range() (model.Date, model.Date) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Window(v.mode, v.anchor)
}

// Refresh re-expands the current window.
func (v *View) Refresh(ctx context.Context) error {
	from, to := v.Range()
	entries, err := v.src.Expand(ctx, from, to)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.entries = entries
	v.refreshed = time.Now()
	v.mu.Unlock()
	return nil
}

// Entries returns a copy of the last refreshed entries.
func (v *View) Entries() []recurrence.Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]recurrence.Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

// RefreshedAt returns the time of the last successful refresh.
func (v *View) RefreshedAt() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.refreshed
}
