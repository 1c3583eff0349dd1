// Package logger builds the zerolog-backed implementation of core/logger.
package logger

import corelogger "github.com/kilianp07/opsplan/core/logger"

// Logger is the core logging interface.
type Logger = corelogger.Logger

// New returns a Logger tagged with component. APP_ENV=dev selects the
// console writer, anything else writes JSON lines to stdout.
func New(component string) Logger {
	return NewZerologLogger(component)
}
