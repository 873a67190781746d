// Package clock provides the engine's fixed-offset local time handling. A
// timezone database is deliberately not used — the installation is
// single-site and the offset is a configuration constant.
package clock

import "time"

// Provider answers local-time questions for a single fixed UTC offset.
type Provider struct {
	loc *time.Location
	now func() time.Time
}

// New builds a Provider for the given offset in hours east of UTC.
// now defaults to time.Now; tests inject a deterministic clock.
func New(offsetHours int, now func() time.Time) *Provider {
	if now == nil {
		now = time.Now
	}
	loc := time.FixedZone("local", offsetHours*3600)
	return &Provider{loc: loc, now: now}
}

// Now returns the current instant rendered in the configured local offset.
func (p *Provider) Now() time.Time {
	return p.now().In(p.loc)
}

// Date formats t (already local, per Now) as YYYY-MM-DD.
func Date(t time.Time) string {
	return t.Format("2006-01-02")
}

// Today returns today's local date string.
func (p *Provider) Today() string {
	return Date(p.Now())
}

// Month returns the 1..12 local month of t.
func Month(t time.Time) int {
	return int(t.Month())
}

// Hour returns the 0..23 local hour of t.
func Hour(t time.Time) int {
	return t.Hour()
}

// IsNight reports whether t's local hour falls in [nightStart, nightEnd),
// wrapping at midnight to [nightStart, 24) ∪ [0, nightEnd) when nightStart
// is later in the day than nightEnd.
func IsNight(t time.Time, nightStartHour, nightEndHour int) bool {
	h := Hour(t)
	if nightStartHour <= nightEndHour {
		return h >= nightStartHour && h < nightEndHour
	}
	return h >= nightStartHour || h < nightEndHour
}

// SameLocalDay reports whether a and b fall on the same local date.
func SameLocalDay(a, b time.Time) bool {
	return Date(a) == Date(b)
}

// ISO8601 formats t as local-time ISO-8601 with the configured fixed
// numeric offset rather than a "Z" suffix.
func ISO8601(t time.Time) string {
	return t.Format("2006-01-02T15:04:05-07:00")
}
