// Package civil handles the fixed-offset civil calendar the booking system
// operates in. Only two calendar days are ever bookable: today and tomorrow,
// computed in the configured zone so that submissions, queries and
// aggregation never drift across the local midnight boundary.
package civil

import "time"

// DateFormat is the wire format for tracked dates.
const DateFormat = "2006-01-02"

// DefaultOffsetMinutes is IST (+05:30), the zone of the original deployment.
const DefaultOffsetMinutes = 330

// Calendar computes tracked dates in a fixed civil zone.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// New creates a calendar with the given UTC offset in minutes.
func New(offsetMinutes int) *Calendar {
	return &Calendar{
		loc: time.FixedZone("local", offsetMinutes*60),
		now: time.Now,
	}
}

// NewWithClock creates a calendar with an injectable clock, for tests.
func NewWithClock(offsetMinutes int, now func() time.Time) *Calendar {
	c := New(offsetMinutes)
	c.now = now
	return c
}

// Location returns the fixed civil zone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Format renders t as a tracked-date string in the civil zone.
func (c *Calendar) Format(t time.Time) string {
	return t.In(c.loc).Format(DateFormat)
}

// Today returns today's date in the civil zone.
func (c *Calendar) Today() string {
	return c.Format(c.now())
}

// Tomorrow returns tomorrow's date in the civil zone.
func (c *Calendar) Tomorrow() string {
	return c.Format(c.now().AddDate(0, 0, 1))
}

// Tracked returns the two bookable dates, today first.
func (c *Calendar) Tracked() [2]string {
	return [2]string{c.Today(), c.Tomorrow()}
}

// IsTracked reports whether date is one of the two bookable days.
func (c *Calendar) IsTracked(date string) bool {
	return date == c.Today() || date == c.Tomorrow()
}
