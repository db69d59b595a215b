package calendar

import "time"

// DayKind classifies a calendar day for rendering.
type DayKind int

const (
	Workday DayKind = iota
	Weekend
	Holiday
)

// EasterSunday computes the date of Easter for the given year using the
// Gauss algorithm.
func EasterSunday(year int) Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return Date{Year: year, Month: time.Month(month), Day: day}
}

// ItalianHolidays maps each national holiday of the year to its common
// name. Easter Sunday and Easter Monday move; the rest are fixed.
func ItalianHolidays(year int) map[Date]string {
	easter := EasterSunday(year)
	return map[Date]string{
		{Year: year, Month: time.January, Day: 1}:    "Capodanno",
		{Year: year, Month: time.January, Day: 6}:    "Epifania",
		easter:                                       "Pasqua",
		easter.AddDays(1):                            "Lunedì dell'Angelo",
		{Year: year, Month: time.April, Day: 25}:     "Festa della Liberazione",
		{Year: year, Month: time.May, Day: 1}:        "Festa del Lavoro",
		{Year: year, Month: time.June, Day: 2}:       "Festa della Repubblica",
		{Year: year, Month: time.August, Day: 15}:    "Ferragosto",
		{Year: year, Month: time.November, Day: 1}:   "Ognissanti",
		{Year: year, Month: time.December, Day: 8}:   "Immacolata Concezione",
		{Year: year, Month: time.December, Day: 25}:  "Natale",
		{Year: year, Month: time.December, Day: 26}:  "Santo Stefano",
	}
}

// ClassifyDay labels a date as holiday, weekend or workday. A holiday that
// falls on a weekend still counts as a holiday.
func ClassifyDay(d Date, holidays map[Date]string) DayKind {
	if _, ok := holidays[d]; ok {
		return Holiday
	}
	if wd := d.ISOWeekday(); wd == 6 || wd == 7 {
		return Weekend
	}
	return Workday
}
