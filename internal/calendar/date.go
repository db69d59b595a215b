// Package calendar implements the pure date logic of the agenda: civil
// dates, weekly recurrence expansion, month grids, Italian holidays and
// same-day overlap detection. Nothing here touches storage.
package calendar

import (
	"fmt"
	"time"
)

const (
	// ISODateLayout is the storage layout for dates.
	ISODateLayout = "2006-01-02"
	// TimeLayout is the storage layout for times of day.
	TimeLayout = "15:04"
)

// Date is a civil date without a time zone. The zero value is not a valid
// date; use IsZero to detect it.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf truncates a wall-clock instant to its civil date.
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(ISODateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return DateOf(t), nil
}

// Time converts the date to a UTC midnight instant. Out-of-range components
// normalize the way time.Date does.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String renders the date in the ISO storage layout.
func (d Date) String() string {
	return d.Time().Format(ISODateLayout)
}

// AddDays returns the date shifted by the given number of days.
func (d Date) AddDays(days int) Date {
	return DateOf(d.Time().AddDate(0, 0, days))
}

// Before reports whether d falls strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d falls strictly after other.
func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool {
	return d == Date{}
}

// ISOWeekday returns the ISO weekday number, 1 for Monday through 7 for
// Sunday.
func (d Date) ISOWeekday() int {
	return (int(d.Time().Weekday())+6)%7 + 1
}

// EndOfYear returns December 31 of the date's year.
func (d Date) EndOfYear() Date {
	return Date{Year: d.Year, Month: time.December, Day: 31}
}

// ValidTime reports whether value is a well-formed HH:MM time of day.
func ValidTime(value string) bool {
	_, err := time.Parse(TimeLayout, value)
	return err == nil
}

// MonthGrid returns the first and last cell of the 42-cell Monday-first
// grid that month views render. The first cell is the Monday on or before
// the first of the month; the grid always spans exactly six weeks.
func MonthGrid(year int, month time.Month) (Date, Date) {
	first := Date{Year: year, Month: month, Day: 1}
	start := first.AddDays(-(first.ISOWeekday() - 1))
	return start, start.AddDays(41)
}
