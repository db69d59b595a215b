package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/example/service-agenda/internal/application"
	"github.com/example/service-agenda/internal/calendar"
	"github.com/example/service-agenda/internal/export"
)

// monthCommand prints the month's agenda, one block per day that has
// occurrences. Defaults to the current month.
func (a *app) monthCommand(ctx context.Context, args []string) error {
	year, month, err := a.monthArgs(args)
	if err != nil {
		return err
	}

	index, err := a.agenda.BuildMonthIndex(ctx, year, month)
	if err != nil {
		return err
	}

	holidays := calendar.ItalianHolidays(year)

	dates := make([]calendar.Date, 0, len(index))
	for date := range index {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, date := range dates {
		label := date.String()
		if name, ok := holidays[date]; ok {
			label += " (" + name + ")"
		}
		fmt.Fprintln(w, label)
		for _, occ := range index[date] {
			fmt.Fprintf(w, "\t%s\t%.1fh\t%s\t%s\t%s\t%s\n",
				occ.StartTime, occ.DurationHours, occ.ClientName, occ.ServiceName, occ.EmployeeNames, occ.Status)
		}
	}
	return w.Flush()
}

// dayCommand prints one day's occurrences plus double-booking warnings.
func (a *app) dayCommand(ctx context.Context, args []string) error {
	date := calendar.DateOf(a.now())
	if len(args) > 0 {
		parsed, err := calendar.ParseDate(args[0])
		if err != nil {
			return err
		}
		date = parsed
	}

	occurrences, warnings, err := a.agenda.ListDay(ctx, date)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, date.String())
	for _, occ := range occurrences {
		fmt.Fprintf(w, "\t%s\t%.1fh\t%s\t%s\t%s\t%s\n",
			occ.StartTime, occ.DurationHours, occ.ClientName, occ.ServiceName, occ.EmployeeNames, occ.Status)
	}
	for _, warning := range warnings {
		fmt.Fprintf(w, "\tWARNING\tdouble booking %s / %s (employee %s)\n",
			warning.RefID, warning.WithRefID, warning.EmployeeID)
	}
	return w.Flush()
}

// listCommand prints the combined flat table of interventions and rules.
func (a *app) listCommand(ctx context.Context) error {
	rows, err := a.agenda.ListAll(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIPO\tCLIENTE\tSERVIZIO\tDIPENDENTI\tDATA\tORA\tDURATA\tGIORNI\tSTATO\tPERIODO")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.1f\t%s\t%s\t%s\n",
			row.Kind, row.ClientName, row.ServiceName, row.EmployeeNames,
			row.Date, row.StartTime, row.DurationHours,
			row.WeekdaySummary, row.Status, row.PeriodSummary)
	}
	return w.Flush()
}

// exportICSCommand writes the whole agenda as an iCalendar file.
func (a *app) exportICSCommand(ctx context.Context, args []string) error {
	path := a.exportPath(args, "agenda.ics")

	interventions, err := a.interventions.ListInterventions(ctx)
	if err != nil {
		return err
	}
	rules, err := a.recurrence.ListRules(ctx)
	if err != nil {
		return err
	}
	titles, err := a.eventTitles(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := export.WriteICS(f, interventions, rules, titles); err != nil {
		return fmt.Errorf("export ics: %w", err)
	}
	a.logger.Info("agenda exported", "format", "ics", "path", path)
	return nil
}

// exportXLSXCommand writes the flat table as a styled workbook.
func (a *app) exportXLSXCommand(ctx context.Context, args []string) error {
	path := a.exportPath(args, "agenda.xlsx")

	rows, err := a.agenda.ListAll(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := export.WriteXLSX(f, rows); err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}
	a.logger.Info("agenda exported", "format", "xlsx", "path", path)
	return nil
}

// holidaysCommand prints the Italian national holidays of a year.
func (a *app) holidaysCommand(args []string) error {
	year := a.now().Year()
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("parse year %q: %w", args[0], err)
		}
		year = parsed
	}

	holidays := calendar.ItalianHolidays(year)
	dates := make([]calendar.Date, 0, len(holidays))
	for date := range holidays {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, date := range dates {
		fmt.Fprintf(w, "%s\t%s\n", date.String(), holidays[date])
	}
	return w.Flush()
}

// clientsCommand prints the client roster.
func (a *app) clientsCommand(ctx context.Context) error {
	clients, err := a.clients.ListClients(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNOME\tTELEFONO\tINDIRIZZO\tEMAIL")
	for _, client := range clients {
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\n",
			client.ID, client.FirstName, client.LastName, client.Phone, client.Address, client.Email)
	}
	return w.Flush()
}

// employeesCommand prints the staff roster.
func (a *app) employeesCommand(ctx context.Context) error {
	employees, err := a.employees.ListEmployees(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNOME\tRUOLO\tORE/SETT\tFINE CONTRATTO")
	for _, employee := range employees {
		contractEnd := "-"
		if employee.ContractEnd != nil {
			contractEnd = *employee.ContractEnd
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			employee.ID, employee.DisplayName(), employee.Role, employee.WeeklyHours, contractEnd)
	}
	return w.Flush()
}

// servicesCommand prints the service catalog.
func (a *app) servicesCommand(ctx context.Context) error {
	services, err := a.catalog.ListServices(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNOME\tPREZZO MENSILE")
	for _, service := range services {
		fmt.Fprintf(w, "%s\t%s\t%.2f\n", service.ID, service.Name, service.MonthlyPrice)
	}
	return w.Flush()
}

func (a *app) monthArgs(args []string) (int, time.Month, error) {
	now := a.now()
	year, month := now.Year(), now.Month()
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, 0, fmt.Errorf("parse year %q: %w", args[0], err)
		}
		year = parsed
	}
	if len(args) > 1 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil || parsed < 1 || parsed > 12 {
			return 0, 0, fmt.Errorf("month %q must be 1..12", args[1])
		}
		month = time.Month(parsed)
	}
	return year, month, nil
}

func (a *app) exportPath(args []string, fallback string) string {
	if len(args) > 0 {
		return args[0]
	}
	return filepath.Join(a.cfg.ExportDir, fallback)
}

// eventTitles maps every intervention and rule ID to a "client — service"
// summary for calendar export.
func (a *app) eventTitles(ctx context.Context) (map[string]string, error) {
	rows, err := a.agenda.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(rows))
	for _, row := range rows {
		titles[row.RefID] = titleFor(row)
	}
	return titles, nil
}

func titleFor(row application.AgendaRow) string {
	if row.ClientName == "-" {
		return row.ServiceName
	}
	return row.ClientName + " - " + row.ServiceName
}
