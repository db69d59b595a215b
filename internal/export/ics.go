// Package export renders agenda data to interchange formats: iCalendar for
// calendar apps and xlsx workbooks for office use.
package export

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/example/service-agenda/internal/application"
	"github.com/example/service-agenda/internal/calendar"
)

// isoWeekdayToRRule maps ISO weekday numbers to RRULE BYDAY values.
var isoWeekdayToRRule = map[int]rrule.Weekday{
	1: rrule.MO, 2: rrule.TU, 3: rrule.WE, 4: rrule.TH,
	5: rrule.FR, 6: rrule.SA, 7: rrule.SU,
}

// WriteICS serializes interventions and rules as an iCalendar stream. Each
// one-off intervention becomes a plain VEVENT; each active rule becomes a
// VEVENT carrying a weekly RRULE so calendar apps expand it themselves.
// titles maps intervention and rule IDs to event summaries; rows without a
// title fall back to the note or status. Rows whose stored date or time
// does not parse are skipped.
func WriteICS(w io.Writer, interventions []application.Intervention, rules []application.RecurrenceRule, titles map[string]string) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//service-agenda//IT")

	for _, intervention := range interventions {
		start, err := eventStart(intervention.Date, intervention.StartTime)
		if err != nil {
			continue
		}
		event := cal.AddEvent(fmt.Sprintf("intervention-%s@service-agenda", intervention.ID))
		event.SetDtStampTime(intervention.UpdatedAt.UTC())
		event.SetStartAt(start)
		event.SetEndAt(start.Add(hoursDuration(intervention.DurationHours)))
		event.SetSummary(eventSummary(titles[intervention.ID], intervention.Note, intervention.Status))
		if intervention.Note != "" {
			event.SetDescription(intervention.Note)
		}
	}

	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		value, start, err := weeklyRRule(rule)
		if err != nil {
			continue
		}
		event := cal.AddEvent(fmt.Sprintf("rule-%s@service-agenda", rule.ID))
		event.SetDtStampTime(rule.UpdatedAt.UTC())
		event.SetStartAt(start)
		event.SetEndAt(start.Add(hoursDuration(rule.DurationHours)))
		event.SetSummary(eventSummary(titles[rule.ID], rule.Note, rule.StatusLabel()))
		event.AddRrule(value)
	}

	return cal.SerializeTo(w)
}

// weeklyRRule renders a rule's pattern as an RRULE value and resolves the
// first concrete occurrence to use as DTSTART.
func weeklyRRule(rule application.RecurrenceRule) (string, time.Time, error) {
	record := calendar.RuleRecord{
		ID:        rule.ID,
		Weekdays:  rule.Weekdays,
		StartDate: rule.StartDate,
		EndDate:   rule.EndDate,
		Active:    rule.Active,
		StartTime: rule.StartTime,
		Duration:  rule.DurationHours,
	}
	parsed, err := calendar.ParseRule(record)
	if err != nil {
		return "", time.Time{}, err
	}
	if parsed.StartsOn == nil || parsed.EndsOn == nil {
		return "", time.Time{}, fmt.Errorf("rule %s has an open window", rule.ID)
	}

	// DTSTART must be an occurrence, not the raw window start.
	first := calendar.Expand(parsed, *parsed.StartsOn, *parsed.EndsOn)
	if len(first) == 0 {
		return "", time.Time{}, fmt.Errorf("rule %s never fires inside its window", rule.ID)
	}
	start, err := eventStart(first[0].String(), rule.StartTime)
	if err != nil {
		return "", time.Time{}, err
	}

	byDay := make([]rrule.Weekday, 0, len(parsed.Weekdays))
	for _, wd := range parsed.Weekdays {
		byDay = append(byDay, isoWeekdayToRRule[wd])
	}
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: byDay,
		Until:     parsed.EndsOn.Time().Add(24*time.Hour - time.Second),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return r.String(), start, nil
}

func eventStart(date, startTime string) (time.Time, error) {
	return time.Parse(calendar.ISODateLayout+" "+calendar.TimeLayout, date+" "+startTime)
}

func hoursDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}

func eventSummary(title, note, status string) string {
	if title != "" {
		return title
	}
	if note != "" {
		return note
	}
	return status
}
