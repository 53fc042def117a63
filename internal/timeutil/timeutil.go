// Package timeutil implements the pure time-and-zone functions the dispatch
// loop relies on: reading the current instant in a zone, finding the next
// occurrence of a local time-of-day, and computing a user's civil calendar
// date, all deterministic across DST gaps and folds.
package timeutil

import (
	"fmt"
	"time"
)

// TimeOfDay is a local wall-clock time with minute granularity, e.g. "07:00".
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String formats back to "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MinutesOfDay returns the time of day expressed as minutes since midnight.
func (t TimeOfDay) MinutesOfDay() int {
	return t.Hour*60 + t.Minute
}

// LoadZone resolves an IANA zone name. An empty string is treated as UTC.
// Any other unresolvable name is a recoverable error: callers decide whether
// to fall back to UTC (never done by the ticker, per the spec's deliberate
// divergence from the source) or skip the affected user.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", name, err)
	}
	return loc, nil
}

// NowInZone returns the current instant, its local representation in zone,
// and the local civil date.
func NowInZone(zone *time.Location, now time.Time) (instant time.Time, local time.Time, date LocalDate) {
	instant = now.UTC()
	local = instant.In(zone)
	date = LocalDateOf(local)
	return instant, local, date
}

// LocalDate is a user's civil calendar date, independent of time-of-day.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// LocalDateOf extracts the calendar date from a local time.Time.
func LocalDateOf(local time.Time) LocalDate {
	y, m, d := local.Date()
	return LocalDate{Year: y, Month: m, Day: d}
}

// String formats as YYYY-MM-DD.
func (d LocalDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// LocalDateInZone returns the local civil date for instant in zone.
func LocalDateInZone(zone *time.Location, instant time.Time) LocalDate {
	return LocalDateOf(instant.In(zone))
}

// NextLocalTimeAfter returns the earliest future UTC instant whose local
// representation in zone equals timeOfDay, strictly after afterInstant.
//
// If today's local occurrence of timeOfDay is at or before afterInstant, the
// search advances by one local calendar day. Across a DST spring-forward gap
// (the wall-clock time does not exist), the first instant after the gap
// whose local time is >= timeOfDay is chosen. Across a fall-back fold
// (the wall-clock time is ambiguous), the earlier of the two representations
// is chosen. Both choices are stable: re-running the function with the same
// inputs always returns the same instant.
func NextLocalTimeAfter(zone *time.Location, timeOfDay TimeOfDay, afterInstant time.Time) time.Time {
	local := afterInstant.In(zone)
	y, m, d := local.Date()

	candidate := buildLocal(zone, y, m, d, timeOfDay)
	if !candidate.After(afterInstant) {
		y, m, d = local.AddDate(0, 0, 1).Date()
		candidate = buildLocal(zone, y, m, d, timeOfDay)
	}
	return candidate.UTC()
}

// buildLocal constructs the instant for timeOfDay on the given local
// calendar date in zone, resolving gaps and folds per the rule documented
// on NextLocalTimeAfter.
func buildLocal(zone *time.Location, y int, m time.Month, d int, tod TimeOfDay) time.Time {
	wall := time.Date(y, m, d, tod.Hour, tod.Minute, 0, 0, zone)

	// time.Date silently normalizes non-existent local times by applying the
	// zone's offset at the constructed instant; to detect a DST gap we
	// reconstruct the same wall-clock fields from the result and compare.
	ry, rm, rd := wall.Date()
	rh, rmin, _ := wall.Clock()
	if ry == y && rm == m && rd == d && rh == tod.Hour && rmin == tod.Minute {
		return wall // unambiguous, or the earlier fold representation
	}

	// Gap: the literal wall-clock time never occurred. time.Date may land on
	// either side of the gap depending on the zone, so take the transition
	// instant itself: the first instant after the gap, whose local time is
	// >= timeOfDay.
	start, end := wall.ZoneBounds()
	if time.Date(ry, rm, rd, rh, rmin, 0, 0, time.UTC).Before(time.Date(y, m, d, tod.Hour, tod.Minute, 0, 0, time.UTC)) {
		return end
	}
	return start
}

// FormatRFC3339 is a small convenience used by renderers and logs.
func FormatRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
