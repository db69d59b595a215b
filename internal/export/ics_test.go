package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/service-agenda/internal/application"
)

func testIntervention() application.Intervention {
	return application.Intervention{
		ID:            "iv-1",
		ClientID:      "client-1",
		ServiceID:     "service-1",
		Date:          "2026-03-16",
		StartTime:     "09:00",
		DurationHours: 2,
		Status:        application.StatusScheduled,
		UpdatedAt:     time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC),
	}
}

func testRule(active bool) application.RecurrenceRule {
	start, end := "2026-01-05", "2026-03-31"
	return application.RecurrenceRule{
		ID:            "rule-1",
		ClientID:      "client-1",
		ServiceID:     "service-1",
		StartTime:     "14:00",
		DurationHours: 1.5,
		StartDate:     &start,
		EndDate:       &end,
		Active:        active,
		Weekdays:      []int{1, 3},
		UpdatedAt:     time.Date(2026, time.January, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestWriteICS(t *testing.T) {
	t.Run("emits one vevent per intervention and active rule", func(t *testing.T) {
		var buf bytes.Buffer
		err := WriteICS(&buf, []application.Intervention{testIntervention()},
			[]application.RecurrenceRule{testRule(true)},
			map[string]string{"iv-1": "Maria Rossi - Pulizie", "rule-1": "Maria Rossi - Giardinaggio"})
		require.NoError(t, err)

		parsed, err := ical.ParseCalendar(strings.NewReader(buf.String()))
		require.NoError(t, err)
		assert.Len(t, parsed.Events(), 2)

		serialized := buf.String()
		assert.Contains(t, serialized, "SUMMARY:Maria Rossi - Pulizie")
		assert.Contains(t, serialized, "RRULE:")
		assert.Contains(t, serialized, "FREQ=WEEKLY")
		assert.Contains(t, serialized, "BYDAY=MO,WE")
		assert.Contains(t, serialized, "UNTIL=")
	})

	t.Run("suspended rules are left out", func(t *testing.T) {
		var buf bytes.Buffer
		err := WriteICS(&buf, nil, []application.RecurrenceRule{testRule(false)}, nil)
		require.NoError(t, err)

		parsed, err := ical.ParseCalendar(strings.NewReader(buf.String()))
		require.NoError(t, err)
		assert.Empty(t, parsed.Events())
	})

	t.Run("skips rows with unparseable dates", func(t *testing.T) {
		broken := testIntervention()
		broken.Date = "not a date"

		var buf bytes.Buffer
		err := WriteICS(&buf, []application.Intervention{broken}, nil, nil)
		require.NoError(t, err)

		parsed, err := ical.ParseCalendar(strings.NewReader(buf.String()))
		require.NoError(t, err)
		assert.Empty(t, parsed.Events())
	})

	t.Run("rule dtstart lands on the first firing weekday", func(t *testing.T) {
		rule := testRule(true)
		start := "2026-01-06" // a Tuesday; the rule fires Mondays and Wednesdays
		rule.StartDate = &start

		_, dtstart, err := weeklyRRule(rule)
		require.NoError(t, err)
		assert.Equal(t, "2026-01-07", dtstart.Format("2006-01-02"))
	})
}
