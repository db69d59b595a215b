package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/service-agenda/internal/calendar"
	"github.com/example/service-agenda/internal/persistence"
)

// weekdayShort renders ISO weekday numbers the way the agenda tables do.
var weekdayShort = map[int]string{
	1: "Lun", 2: "Mar", 3: "Mer", 4: "Gio", 5: "Ven", 6: "Sab", 7: "Dom",
}

// AgendaService merges one-off interventions and recurrence rule expansions
// into the calendar views. It reads everything and writes nothing.
type AgendaService struct {
	interventions InterventionRepository
	rules         RecurrenceRuleRepository
	clients       ClientRepository
	services      ServiceRepository
	employees     EmployeeRepository
	now           func() time.Time
	logger        *slog.Logger
}

// NewAgendaService wires dependencies for the read-only agenda views.
func NewAgendaService(
	interventions InterventionRepository,
	rules RecurrenceRuleRepository,
	clients ClientRepository,
	services ServiceRepository,
	employees EmployeeRepository,
	now func() time.Time,
	logger *slog.Logger,
) *AgendaService {
	if now == nil {
		now = time.Now
	}
	return &AgendaService{
		interventions: interventions,
		rules:         rules,
		clients:       clients,
		services:      services,
		employees:     employees,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *AgendaService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AgendaService", operation, attrs...)
}

// nameIndex caches entity display names for occurrence assembly.
type nameIndex struct {
	clients   map[string]string
	services  map[string]string
	employees map[string]string
}

func (s *AgendaService) loadNames(ctx context.Context) (nameIndex, error) {
	index := nameIndex{
		clients:   map[string]string{},
		services:  map[string]string{},
		employees: map[string]string{},
	}

	clients, err := s.clients.ListClients(ctx)
	if err != nil {
		return nameIndex{}, mapRepoError(err)
	}
	for _, client := range clients {
		index.clients[client.ID] = client.FirstName + " " + client.LastName
	}

	services, err := s.services.ListServices(ctx)
	if err != nil {
		return nameIndex{}, mapRepoError(err)
	}
	for _, service := range services {
		index.services[service.ID] = service.Name
	}

	employees, err := s.employees.ListEmployees(ctx)
	if err != nil {
		return nameIndex{}, mapRepoError(err)
	}
	for _, employee := range employees {
		index.employees[employee.ID] = employee.FirstName + " " + employee.LastName
	}
	return index, nil
}

func (index nameIndex) clientName(id string) string {
	if name, ok := index.clients[id]; ok {
		return name
	}
	return placeholder
}

func (index nameIndex) serviceName(id string) string {
	if name, ok := index.services[id]; ok {
		return name
	}
	return placeholder
}

func (index nameIndex) employeeNames(ids []string) string {
	if len(ids) == 0 {
		return placeholder
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := index.employees[id]; ok {
			names = append(names, name)
		} else {
			names = append(names, id)
		}
	}
	return strings.Join(names, ", ")
}

// BuildMonthIndex returns the month's occurrences keyed by date. One-off
// interventions dated inside the month are tagged SINGLE; each parseable
// active rule is expanded over the month view's 42-cell grid and filtered
// back to the month, tagged RECURRING. Each date's slice is sorted by start
// time, insertion order breaking ties. Rules that fail to parse are skipped.
func (s *AgendaService) BuildMonthIndex(ctx context.Context, year int, month time.Month) (map[calendar.Date][]Occurrence, error) {
	if s == nil {
		return nil, fmt.Errorf("AgendaService is nil")
	}

	logger := s.loggerWith(ctx, "BuildMonthIndex", "year", year, "month", int(month))

	names, err := s.loadNames(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[calendar.Date][]Occurrence)

	interventions, err := s.interventions.ListInterventionsInMonth(ctx, year, int(month))
	if err != nil {
		return nil, mapRepoError(err)
	}
	for _, model := range interventions {
		date, parseErr := calendar.ParseDate(model.Date)
		if parseErr != nil {
			logger.WarnContext(ctx, "skipping intervention with unparseable date", "intervention_id", model.ID, "date", model.Date)
			continue
		}
		index[date] = append(index[date], occurrenceFromIntervention(model, date, names))
	}

	gridStart, gridEnd := calendar.MonthGrid(year, month)

	rules, err := s.rules.ListActiveRules(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	for _, model := range rules {
		parsed, parseErr := calendar.ParseRule(ruleRecord(model))
		if parseErr != nil {
			logger.WarnContext(ctx, "skipping unparseable rule", "rule_id", model.ID, "error", parseErr)
			continue
		}
		for _, date := range calendar.Expand(parsed, gridStart, gridEnd) {
			if date.Year != year || date.Month != month {
				continue
			}
			index[date] = append(index[date], occurrenceFromRule(model, date, names))
		}
	}

	for date := range index {
		occurrences := index[date]
		sort.SliceStable(occurrences, func(i, j int) bool {
			return occurrences[i].StartTime < occurrences[j].StartTime
		})
		index[date] = occurrences
	}
	return index, nil
}

// ListDay returns one day's occurrences in start-time order plus advisory
// warnings for same-employee double bookings.
func (s *AgendaService) ListDay(ctx context.Context, date calendar.Date) ([]Occurrence, []OverlapWarning, error) {
	if s == nil {
		return nil, nil, fmt.Errorf("AgendaService is nil")
	}

	index, err := s.BuildMonthIndex(ctx, date.Year, date.Month)
	if err != nil {
		return nil, nil, err
	}
	occurrences := index[date]

	bookings := make([]calendar.Booking, 0, len(occurrences))
	for _, occ := range occurrences {
		bookings = append(bookings, calendar.Booking{
			RefID:       occ.RefID,
			EmployeeIDs: occ.EmployeeIDs,
			StartTime:   occ.StartTime,
			Duration:    occ.DurationHours,
		})
	}

	warnings := make([]OverlapWarning, 0)
	for _, overlap := range calendar.DetectOverlaps(bookings) {
		warnings = append(warnings, OverlapWarning{
			RefID:      overlap.RefID,
			WithRefID:  overlap.WithRefID,
			EmployeeID: overlap.EmployeeID,
		})
	}
	return occurrences, warnings, nil
}

// ListAll returns the combined flat table: one row per intervention and one
// per rule, active or not. Singles sort before rules and by date descending
// then start time ascending, stably; rule rows share the placeholder date and
// so order by start time alone. Rows whose stored date does not parse still
// appear, carrying the raw text.
func (s *AgendaService) ListAll(ctx context.Context) ([]AgendaRow, error) {
	if s == nil {
		return nil, fmt.Errorf("AgendaService is nil")
	}

	names, err := s.loadNames(ctx)
	if err != nil {
		return nil, err
	}

	interventions, err := s.interventions.ListInterventions(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	rules, err := s.rules.ListRules(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	rows := make([]AgendaRow, 0, len(interventions)+len(rules))

	for _, model := range interventions {
		rows = append(rows, AgendaRow{
			RefID:          model.ID,
			Kind:           KindSingle,
			ClientName:     names.clientName(model.ClientID),
			ServiceName:    names.serviceName(model.ServiceID),
			EmployeeNames:  names.employeeNames(model.EmployeeIDs),
			Date:           model.Date,
			StartTime:      model.StartTime,
			DurationHours:  model.DurationHours,
			WeekdaySummary: placeholder,
			Status:         model.Status,
			PeriodSummary:  placeholder,
		})
	}

	for _, model := range rules {
		rule := toApplicationRule(model)
		rows = append(rows, AgendaRow{
			RefID:          rule.ID,
			Kind:           KindRecurring,
			ClientName:     names.clientName(rule.ClientID),
			ServiceName:    names.serviceName(rule.ServiceID),
			EmployeeNames:  names.employeeNames(rule.EmployeeIDs),
			Date:           placeholder,
			StartTime:      rule.StartTime,
			DurationHours:  rule.DurationHours,
			WeekdaySummary: WeekdaySummary(rule.Weekdays),
			Status:         rule.StatusLabel(),
			PeriodSummary:  periodSummary(rule.StartDate, rule.EndDate),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Kind != b.Kind {
			return a.Kind == KindSingle
		}
		// ISO dates compare correctly as strings; rule rows all carry the
		// placeholder date, so among themselves they order by time alone.
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.StartTime < b.StartTime
	})
	return rows, nil
}

func occurrenceFromIntervention(model persistence.Intervention, date calendar.Date, names nameIndex) Occurrence {
	return Occurrence{
		RefID:         model.ID,
		Kind:          KindSingle,
		Date:          date,
		StartTime:     model.StartTime,
		DurationHours: model.DurationHours,
		ClientName:    names.clientName(model.ClientID),
		ServiceName:   names.serviceName(model.ServiceID),
		EmployeeNames: names.employeeNames(model.EmployeeIDs),
		EmployeeIDs:   model.EmployeeIDs,
		Status:        model.Status,
	}
}

func occurrenceFromRule(model persistence.RecurrenceRule, date calendar.Date, names nameIndex) Occurrence {
	status := RuleStatusSuspended
	if model.Active {
		status = RuleStatusActive
	}
	return Occurrence{
		RefID:         model.ID,
		Kind:          KindRecurring,
		Date:          date,
		StartTime:     model.StartTime,
		DurationHours: model.DurationHours,
		ClientName:    names.clientName(model.ClientID),
		ServiceName:   names.serviceName(model.ServiceID),
		EmployeeNames: names.employeeNames(model.EmployeeIDs),
		EmployeeIDs:   model.EmployeeIDs,
		Status:        status,
	}
}

// WeekdaySummary renders a weekday set as comma separated short names.
func WeekdaySummary(weekdays []int) string {
	if len(weekdays) == 0 {
		return placeholder
	}
	sorted := append([]int(nil), weekdays...)
	sort.Ints(sorted)
	names := make([]string, 0, len(sorted))
	for _, wd := range sorted {
		if name, ok := weekdayShort[wd]; ok {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return placeholder
	}
	return strings.Join(names, ", ")
}

func periodSummary(start, end *string) string {
	return optionalDateOr(start, placeholder) + " / " + optionalDateOr(end, placeholder)
}

func optionalDateOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}
