package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/example/service-agenda/internal/application"
)

const sheetName = "Agenda"

var agendaHeaders = []string{
	"Tipo", "Cliente", "Servizio", "Dipendenti", "Data", "Ora",
	"Durata (h)", "Giorni", "Stato", "Periodo",
}

var agendaColumnWidths = []float64{12, 24, 24, 28, 12, 8, 10, 18, 12, 24}

// WriteXLSX renders the flat agenda table as a styled xlsx workbook.
func WriteXLSX(w io.Writer, rows []application.AgendaRow) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, header := range agendaHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, name, name, agendaColumnWidths[col]); err != nil {
			return err
		}
	}

	for i, row := range rows {
		values := []any{
			kindLabel(row.Kind),
			row.ClientName,
			row.ServiceName,
			row.EmployeeNames,
			row.Date,
			row.StartTime,
			row.DurationHours,
			row.WeekdaySummary,
			row.Status,
			row.PeriodSummary,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}

	// Keep the header visible while scrolling.
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func kindLabel(kind application.Kind) string {
	if kind == application.KindRecurring {
		return "Ricorrente"
	}
	return "Singolo"
}
