package calendar

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidWeekday reports a weekday number outside 1..7.
	ErrInvalidWeekday = errors.New("weekday must be between 1 (Monday) and 7 (Sunday)")
	// ErrEmptyWeekdays reports a rule with no weekdays at all.
	ErrEmptyWeekdays = errors.New("rule has no weekdays")
)

// Rule is a validated weekly recurrence pattern ready for expansion.
// Weekdays are ISO numbers, deduplicated and sorted. A nil StartsOn or
// EndsOn leaves that side of the window open.
type Rule struct {
	ID        string
	Weekdays  []int
	StartsOn  *Date
	EndsOn    *Date
	Active    bool
	StartTime string
	Duration  float64
}

// RuleRecord is the raw stored shape of a rule, before any parsing. Dates
// are nullable ISO strings exactly as persisted.
type RuleRecord struct {
	ID        string
	Weekdays  []int
	StartDate *string
	EndDate   *string
	Active    bool
	StartTime string
	Duration  float64
}

// FieldError ties a parse failure to the rule and field it came from, so
// callers can skip the offending rule and keep going.
type FieldError struct {
	RuleID string
	Field  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("rule %s: field %s: %v", e.RuleID, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ParseRule validates a stored record into an expandable Rule. Weekdays are
// checked against 1..7, deduplicated and sorted; window dates are parsed
// and an end before the start is rejected.
func ParseRule(record RuleRecord) (Rule, error) {
	if len(record.Weekdays) == 0 {
		return Rule{}, &FieldError{RuleID: record.ID, Field: "weekdays", Err: ErrEmptyWeekdays}
	}

	seen := make(map[int]bool, len(record.Weekdays))
	weekdays := make([]int, 0, len(record.Weekdays))
	for _, wd := range record.Weekdays {
		if wd < 1 || wd > 7 {
			return Rule{}, &FieldError{RuleID: record.ID, Field: "weekdays", Err: fmt.Errorf("%w: got %d", ErrInvalidWeekday, wd)}
		}
		if !seen[wd] {
			seen[wd] = true
			weekdays = append(weekdays, wd)
		}
	}
	sort.Ints(weekdays)

	rule := Rule{
		ID:        record.ID,
		Weekdays:  weekdays,
		Active:    record.Active,
		StartTime: record.StartTime,
		Duration:  record.Duration,
	}

	if record.StartDate != nil {
		start, err := ParseDate(*record.StartDate)
		if err != nil {
			return Rule{}, &FieldError{RuleID: record.ID, Field: "start_date", Err: err}
		}
		rule.StartsOn = &start
	}
	if record.EndDate != nil {
		end, err := ParseDate(*record.EndDate)
		if err != nil {
			return Rule{}, &FieldError{RuleID: record.ID, Field: "end_date", Err: err}
		}
		if rule.StartsOn != nil && end.Before(*rule.StartsOn) {
			return Rule{}, &FieldError{RuleID: record.ID, Field: "end_date", Err: fmt.Errorf("end %s precedes start %s", end, *rule.StartsOn)}
		}
		rule.EndsOn = &end
	}

	return rule, nil
}

// Expand lists the dates the rule fires on inside [rangeStart, rangeEnd],
// both endpoints inclusive. The effective window is the intersection of the
// requested range and the rule's own window. Inactive rules expand to
// nothing. The result is ascending and duplicate free.
func Expand(rule Rule, rangeStart, rangeEnd Date) []Date {
	if !rule.Active || len(rule.Weekdays) == 0 {
		return nil
	}
	if rangeEnd.Before(rangeStart) {
		return nil
	}

	lower := rangeStart
	if rule.StartsOn != nil && rule.StartsOn.After(lower) {
		lower = *rule.StartsOn
	}
	upper := rangeEnd
	if rule.EndsOn != nil && rule.EndsOn.Before(upper) {
		upper = *rule.EndsOn
	}
	if upper.Before(lower) {
		return nil
	}

	fires := [8]bool{}
	for _, wd := range rule.Weekdays {
		fires[wd] = true
	}

	var dates []Date
	for day := lower; !day.After(upper); day = day.AddDays(1) {
		if fires[day.ISOWeekday()] {
			dates = append(dates, day)
		}
	}
	return dates
}
