package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/service-agenda/internal/application"
)

func TestWriteXLSX(t *testing.T) {
	rows := []application.AgendaRow{
		{
			RefID:          "iv-1",
			Kind:           application.KindSingle,
			ClientName:     "Maria Rossi",
			ServiceName:    "Pulizie",
			EmployeeNames:  "Anna Verdi",
			Date:           "2026-03-16",
			StartTime:      "09:00",
			DurationHours:  2,
			WeekdaySummary: "-",
			Status:         application.StatusScheduled,
			PeriodSummary:  "-",
		},
		{
			RefID:          "rule-1",
			Kind:           application.KindRecurring,
			ClientName:     "Maria Rossi",
			ServiceName:    "Giardinaggio",
			EmployeeNames:  "-",
			Date:           "-",
			StartTime:      "14:00",
			DurationHours:  1.5,
			WeekdaySummary: "Lun, Mer",
			Status:         "Active",
			PeriodSummary:  "2026-01-01 / 2026-12-31",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Agenda"}, f.GetSheetList())

	header, err := f.GetCellValue("Agenda", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Tipo", header)

	kind, err := f.GetCellValue("Agenda", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Singolo", kind)

	client, err := f.GetCellValue("Agenda", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Maria Rossi", client)

	weekdays, err := f.GetCellValue("Agenda", "H3")
	require.NoError(t, err)
	assert.Equal(t, "Lun, Mer", weekdays)

	sheetRows, err := f.GetRows("Agenda")
	require.NoError(t, err)
	assert.Len(t, sheetRows, 3)
}
