// Package calendar provides pure calendar-day arithmetic.
// All operations work on local wall-clock dates (year/month/day) with no
// time-of-day or timezone component, so DST shifts cannot skew day counts.
package calendar

import (
	"fmt"
	"time"
)

// Date is a calendar date at local-midnight granularity.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Today returns the current local calendar date.
func Today() Date {
	return FromTime(time.Now())
}

// FromTime truncates a time.Time to its local calendar date.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// New constructs a normalized date. Out-of-range components roll over
// the way time.Date rolls them (Jan 32 → Feb 1).
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.Local))
}

// Parse reads a date in YYYY-MM-DD form.
func Parse(s string) (Date, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// MustParse is Parse for compile-time-known literals; panics on bad input.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// midnight converts the date to its local-midnight instant.
// UTC is used for arithmetic so the difference between two midnights is
// always a whole number of days regardless of DST transitions.
func (d Date) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date shifted by n whole days. n may be negative.
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC)
	y, m, day := t.Date()
	return Date{Year: y, Month: m, Day: day}
}

// DaysBetween returns the whole-day difference b - a.
// For all integers n: DaysBetween(a, a.AddDays(n)) == n.
func DaysBetween(a, b Date) int {
	return int(b.midnight().Sub(a.midnight()) / (24 * time.Hour))
}

// MarshalJSON encodes the date as a "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("date must be a JSON string, got %s", s)
	}
	parsed, err := Parse(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	return DaysBetween(d, other) > 0
}

// Equal reports whether two dates name the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}
