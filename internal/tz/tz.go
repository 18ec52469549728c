// Package tz normalizes instants between the user's configured timezone and
// UTC. Everything persisted is UTC; values with no offset are interpreted in
// the user's zone, or in UTC when no zone is configured.
package tz

import (
	"fmt"
	"strings"
	"time"

	apperrors "tally/internal/errors"
)

// LocalZone is the settings value meaning "no explicit zone".
const LocalZone = "local"

// LoadLocation resolves a zone name. "" and "local" yield nil.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, LocalZone) {
		return nil, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// ToUTC converts an instant that carries its own offset to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// AttachZone reads the wall-clock fields of a naive value as being in loc
// (UTC when loc is nil) and returns the corresponding UTC instant.
func AttachZone(wall time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(wall.Year(), wall.Month(), wall.Day(),
		wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), loc).UTC()
}

// ToUserLocal converts a UTC instant into loc for display. With no zone
// configured the instant is returned in UTC.
func ToUserLocal(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t.UTC()
	}
	return t.In(loc)
}

var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

const dateOnlyLayout = "2006-01-02"

// ParseInstant parses an RFC 3339 timestamp or a naive timestamp/date. Naive
// values are read in loc. The result is always UTC.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "timestamp is required")
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return AttachZone(t, loc), nil
		}
	}
	return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid timestamp %q", s))
}

// ParseBoundary parses a range boundary. A bare date becomes local midnight,
// or 23:59:59.999999 when endOfDay is set. Anything unparseable yields nil,
// which callers treat as an open bound.
func ParseBoundary(s string, endOfDay bool, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if d, err := time.Parse(dateOnlyLayout, s); err == nil {
		if endOfDay {
			d = time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 999999000, time.UTC)
		}
		t := AttachZone(d, loc)
		return &t
	}
	t, err := ParseInstant(s, loc)
	if err != nil {
		return nil
	}
	return &t
}

// Period names understood by PeriodWindow.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// PeriodWindow returns the calendar window containing anchor, computed in
// anchor's location. Windows start at 00:00:00 and end at 23:59:59 on their
// last day; weeks start on Monday.
func PeriodWindow(period string, anchor time.Time) (time.Time, time.Time, error) {
	loc := anchor.Location()
	y, m, d := anchor.Date()
	switch period {
	case PeriodToday:
		start := time.Date(y, m, d, 0, 0, 0, 0, loc)
		return start, endOfDay(start), nil
	case PeriodWeek:
		offset := (int(anchor.Weekday()) + 6) % 7
		start := time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
		return start, endOfDay(start.AddDate(0, 0, 6)), nil
	case PeriodMonth:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return start, endOfDay(start.AddDate(0, 1, -1)), nil
	case PeriodYear:
		start := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return start, endOfDay(time.Date(y, time.December, 31, 0, 0, 0, 0, loc)), nil
	}
	return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid period %q", period))
}

func endOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, day.Location())
}
