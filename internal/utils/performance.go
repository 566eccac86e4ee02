package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// SlowOperation is the duration above which a timed operation is logged as a warning.
const SlowOperation = 10 * time.Second

// Timer measures how long an operation takes
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
}

// NewTimer starts a timer for the named operation
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{start: time.Now(), name: name, log: log}
}

// Stop logs the elapsed time at debug level, or as a warning when it
// exceeded SlowOperation, and returns it.
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)

	event := t.log.Debug()
	if duration > SlowOperation {
		event = t.log.Warn()
	}
	event.
		Str("operation", t.name).
		Dur("duration", duration).
		Msg("Operation completed")

	return duration
}

// OperationTimer provides a defer-friendly way to measure an operation
//
// Usage:
//
//	defer utils.OperationTimer("refresh_all", log)()
func OperationTimer(operation string, log zerolog.Logger) func() {
	t := NewTimer(operation, log)
	return func() { t.Stop() }
}
