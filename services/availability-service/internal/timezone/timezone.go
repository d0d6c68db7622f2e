// Package timezone converts between civil (wall-clock) readings in named
// IANA zones and absolute instants. Everything in the slot engine that
// touches a zone goes through here so unknown zones fail fast instead of
// silently falling back to UTC.
package timezone

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTimeZone = errors.New("invalid time zone")

func load(zone string) (*time.Location, error) {
	if zone == "" {
		return nil, fmt.Errorf("%w: empty zone name", ErrInvalidTimeZone)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeZone, zone)
	}
	return loc, nil
}

// OffsetMinutes returns the zone's UTC offset at instant t, in minutes.
func OffsetMinutes(t time.Time, zone string) (int, error) {
	loc, err := load(zone)
	if err != nil {
		return 0, err
	}
	_, offsetSeconds := t.In(loc).Zone()
	return offsetSeconds / 60, nil
}

// ZonedTime returns the instant at which the given zone shows the given
// wall-clock reading. Resolution is delegated to the tz database, so readings
// inside a DST gap normalize the way time.Date does rather than being
// misplaced by a fixed-offset guess.
func ZonedTime(zone string, year int, month time.Month, day, hour, minute, second int) (time.Time, error) {
	loc, err := load(zone)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, month, day, hour, minute, second, 0, loc), nil
}

// StartOfLocalDay returns the instant of local midnight for the civil day
// containing t in the given zone.
func StartOfLocalDay(t time.Time, zone string) (time.Time, error) {
	loc, err := load(zone)
	if err != nil {
		return time.Time{}, err
	}
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc), nil
}

// Weekday returns t's day of week as read in the given zone,
// 0=Sunday .. 6=Saturday.
func Weekday(t time.Time, zone string) (int, error) {
	loc, err := load(zone)
	if err != nil {
		return 0, err
	}
	return int(t.In(loc).Weekday()), nil
}
