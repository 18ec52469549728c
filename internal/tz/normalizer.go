package tz

import "time"

// Normalizer applies one resolved user timezone to every conversion.
// The zero value behaves as if no zone were configured.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer binds loc; nil means UTC semantics.
func NewNormalizer(loc *time.Location) Normalizer {
	return Normalizer{loc: loc}
}

// Location returns the bound zone, nil when none is configured.
func (n Normalizer) Location() *time.Location {
	return n.loc
}

// ToUTC converts an offset-carrying instant to UTC.
func (n Normalizer) ToUTC(t time.Time) time.Time {
	return ToUTC(t)
}

// FromWallClock reads a naive value in the user's zone and returns UTC.
func (n Normalizer) FromWallClock(wall time.Time) time.Time {
	return AttachZone(wall, n.loc)
}

// ToUserLocal converts a UTC instant for display.
func (n Normalizer) ToUserLocal(t time.Time) time.Time {
	return ToUserLocal(t, n.loc)
}

// ParseInstant parses s, reading naive values in the user's zone.
func (n Normalizer) ParseInstant(s string) (time.Time, error) {
	return ParseInstant(s, n.loc)
}

// ParseBoundary parses a range boundary; nil on failure.
func (n Normalizer) ParseBoundary(s string, endOfDay bool) *time.Time {
	return ParseBoundary(s, endOfDay, n.loc)
}

// DateRange parses optional start and end boundaries, treating bare dates
// as whole days in the user's zone.
func (n Normalizer) DateRange(start, end string) (*time.Time, *time.Time) {
	return n.ParseBoundary(start, false), n.ParseBoundary(end, true)
}

// Now returns the current instant in UTC.
func (n Normalizer) Now() time.Time {
	return time.Now().UTC()
}
