// Package eventlog implements the bounded, classified, append-only event
// log: appended entries are mirrored to the structured logger, truncated
// from the oldest once the entry cap is exceeded, and pruned by age on a
// wall-clock-gated cleanup interval.
package eventlog

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"energy_controller/internal/clock"
	"energy_controller/internal/logging"
	"energy_controller/internal/model"
)

// Log wraps a persisted slice of entries with the append/truncate/cleanup
// rules. It does not own persistence: callers load the slice from the
// store, mutate it through Log, and write it back.
type Log struct {
	logger             zerolog.Logger
	maxEntries         int
	maxAgeDays         int
	cleanupIntervalHrs int
}

// New builds a Log. logger receives a mirror of every appended entry.
func New(logger zerolog.Logger, maxEntries, maxAgeDays, cleanupIntervalHrs int) *Log {
	return &Log{
		logger:             logger,
		maxEntries:         maxEntries,
		maxAgeDays:         maxAgeDays,
		cleanupIntervalHrs: cleanupIntervalHrs,
	}
}

// Append adds a new entry to entries, truncating from the oldest if the
// result exceeds maxEntries, and mirrors the entry to the structured
// logger. Returns the updated slice.
func (l *Log) Append(entries []model.LogEntry, now time.Time, typ model.LogType, priority model.Priority, message string, data map[string]any) []model.LogEntry {
	entry := model.LogEntry{
		ID:           uuid.NewString(),
		LocalISOTime: clock.ISO8601(now),
		Type:         typ,
		Priority:     priority,
		Message:      message,
		Data:         data,
		Date:         clock.Date(now),
		RecordedAt:   now,
	}

	entries = append(entries, entry)
	if len(entries) > l.maxEntries {
		entries = entries[len(entries)-l.maxEntries:]
	}

	l.mirror(entry)
	return entries
}

func (l *Log) mirror(entry model.LogEntry) {
	ev := logging.ForPriority(l.logger, entry.Priority)
	ev.Str("type", string(entry.Type)).Str("id", entry.ID).Msg(entry.Message)
}

// CleanupIfDue removes entries older than maxAgeDays, but only if at least
// cleanupIntervalHrs have elapsed since lastCleanup (wall-clock comparison
// on every call; the engine calls it once per tick). Returns the possibly-pruned slice, the possibly-updated
// lastCleanup epoch-ms, and whether a cleanup ran.
func (l *Log) CleanupIfDue(entries []model.LogEntry, now time.Time, lastCleanupEpochMs int64) ([]model.LogEntry, int64, bool) {
	interval := time.Duration(l.cleanupIntervalHrs) * time.Hour
	last := time.UnixMilli(lastCleanupEpochMs)
	if lastCleanupEpochMs != 0 && now.Sub(last) < interval {
		return entries, lastCleanupEpochMs, false
	}

	cutoff := now.AddDate(0, 0, -l.maxAgeDays)
	kept := entries[:0:0]
	for _, e := range entries {
		if e.RecordedAt.IsZero() || !e.RecordedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept, now.UnixMilli(), true
}

// ShouldEmitDailySummary reports whether the daily summary should fire this
// tick: at most once per local date, and only in the late-night window
// {23, 0, 1}.
func ShouldEmitDailySummary(now time.Time, lastDailySummaryDate string) bool {
	h := clock.Hour(now)
	if h != 23 && h != 0 && h != 1 {
		return false
	}
	return clock.Date(now) != lastDailySummaryDate
}
