package plan

import "fmt"

// Config tunes validation and the schedule view.
type Config struct {
	// ViewMode is the default display window: "week" or "month".
	ViewMode ViewMode `json:"view_mode" yaml:"view_mode"`
	// MaxRecurrenceDays bounds the span between a repeating schedule's date
	// and its repeat end date.
	MaxRecurrenceDays int `json:"max_recurrence_days" yaml:"max_recurrence_days"`
	// MaxWindowDays bounds the number of days a single list or report
	// request may expand.
	MaxWindowDays int `json:"max_window_days" yaml:"max_window_days"`
	// RefreshDebounceMS coalesces view refreshes after bursts of commits.
	RefreshDebounceMS int `json:"refresh_debounce_ms" yaml:"refresh_debounce_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ViewMode == "" {
		c.ViewMode = ViewWeek
	}
	if c.MaxRecurrenceDays == 0 {
		c.MaxRecurrenceDays = 366
	}
	if c.MaxWindowDays == 0 {
		c.MaxWindowDays = 366
	}
	if c.RefreshDebounceMS == 0 {
		c.RefreshDebounceMS = 250
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.ViewMode != ViewWeek && c.ViewMode != ViewMonth {
		return fmt.Errorf("unknown view mode %q", c.ViewMode)
	}
	if c.MaxRecurrenceDays < 0 {
		return fmt.Errorf("max_recurrence_days must not be negative")
	}
	if c.MaxWindowDays < 0 {
		return fmt.Errorf("max_window_days must not be negative")
	}
	if c.RefreshDebounceMS < 0 {
		return fmt.Errorf("refresh_debounce_ms must not be negative")
	}
	return nil
}
