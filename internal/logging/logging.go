// Package logging builds the structured logger used throughout the daemon.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"energy_controller/internal/model"
)

// New builds a zerolog.Logger. When pretty is true it writes a
// console-friendly format (development); otherwise it writes JSON
// (production).
func New(pretty bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var w = os.Stderr
	if pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// ForPriority maps an event log priority to a zerolog level so the
// persisted event log and the operational log stay in lock-step.
func ForPriority(logger zerolog.Logger, priority model.Priority) *zerolog.Event {
	switch priority {
	case model.PriorityCritical:
		return logger.Error()
	case model.PriorityHigh:
		return logger.Warn()
	case model.PriorityLow:
		return logger.Debug()
	default:
		return logger.Info()
	}
}
