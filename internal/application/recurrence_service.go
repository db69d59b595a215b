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

// RecurrenceRuleRepository captures the persistence operations needed by the
// service.
type RecurrenceRuleRepository interface {
	CreateRule(ctx context.Context, rule persistence.RecurrenceRule) error
	UpdateRule(ctx context.Context, rule persistence.RecurrenceRule) error
	GetRule(ctx context.Context, id string) (persistence.RecurrenceRule, error)
	ListRules(ctx context.Context) ([]persistence.RecurrenceRule, error)
	ListActiveRules(ctx context.Context) ([]persistence.RecurrenceRule, error)
	DeleteRule(ctx context.Context, id string) error
	ExtendStaleRules(ctx context.Context, today string, endOfYear string) (int64, error)
}

// RecurrenceService orchestrates validation and persistence for weekly
// recurrence rules.
type RecurrenceService struct {
	rules       RecurrenceRuleRepository
	clients     ClientRepository
	services    ServiceRepository
	employees   EmployeeRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRecurrenceService wires dependencies for recurrence rule operations.
func NewRecurrenceService(
	rules RecurrenceRuleRepository,
	clients ClientRepository,
	services ServiceRepository,
	employees EmployeeRepository,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *RecurrenceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RecurrenceService{
		rules:       rules,
		clients:     clients,
		services:    services,
		employees:   employees,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *RecurrenceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RecurrenceService", operation, attrs...)
}

// CreateRule validates input and persists a new recurrence rule. A missing
// start date defaults to today, a missing end date to December 31 of the
// current year.
func (s *RecurrenceService) CreateRule(ctx context.Context, input RuleInput) (rule RecurrenceRule, err error) {
	if s == nil {
		err = fmt.Errorf("RecurrenceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRule")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create rule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("rule_id", rule.ID).InfoContext(ctx, "rule created")
	}()

	input = s.normalizeRuleInput(input)
	if err = s.validateRule(ctx, input); err != nil {
		return
	}

	now := s.now()
	rule = RecurrenceRule{
		ID:            s.idGenerator(),
		ClientID:      input.ClientID,
		ServiceID:     input.ServiceID,
		StartTime:     input.StartTime,
		DurationHours: input.DurationHours,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		Active:        input.Active,
		Note:          input.Note,
		Weekdays:      input.Weekdays,
		EmployeeIDs:   input.EmployeeIDs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err = s.rules.CreateRule(ctx, toPersistenceRule(rule)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// UpdateRule validates input and updates an existing recurrence rule.
func (s *RecurrenceService) UpdateRule(ctx context.Context, id string, input RuleInput) (rule RecurrenceRule, err error) {
	if s == nil {
		err = fmt.Errorf("RecurrenceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRule", "rule_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update rule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "rule updated")
	}()

	existing, err := s.rules.GetRule(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	input = s.normalizeRuleInput(input)
	if err = s.validateRule(ctx, input); err != nil {
		return
	}

	rule = toApplicationRule(existing)
	rule.ClientID = input.ClientID
	rule.ServiceID = input.ServiceID
	rule.StartTime = input.StartTime
	rule.DurationHours = input.DurationHours
	rule.StartDate = input.StartDate
	rule.EndDate = input.EndDate
	rule.Active = input.Active
	rule.Note = input.Note
	rule.Weekdays = input.Weekdays
	rule.EmployeeIDs = input.EmployeeIDs
	rule.UpdatedAt = s.now()

	if err = s.rules.UpdateRule(ctx, toPersistenceRule(rule)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// GetRule retrieves a recurrence rule by ID.
func (s *RecurrenceService) GetRule(ctx context.Context, id string) (RecurrenceRule, error) {
	if s == nil {
		return RecurrenceRule{}, fmt.Errorf("RecurrenceService is nil")
	}
	stored, err := s.rules.GetRule(ctx, id)
	if err != nil {
		return RecurrenceRule{}, mapRepoError(err)
	}
	return toApplicationRule(stored), nil
}

// ListRules returns all recurrence rules in stored order.
func (s *RecurrenceService) ListRules(ctx context.Context) ([]RecurrenceRule, error) {
	if s == nil {
		return nil, fmt.Errorf("RecurrenceService is nil")
	}
	stored, err := s.rules.ListRules(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	rules := make([]RecurrenceRule, 0, len(stored))
	for _, model := range stored {
		rules = append(rules, toApplicationRule(model))
	}
	return rules, nil
}

// SetActive flips a rule's active flag. A suspended rule keeps its data but
// contributes no occurrences to calendar views.
func (s *RecurrenceService) SetActive(ctx context.Context, id string, active bool) (rule RecurrenceRule, err error) {
	if s == nil {
		err = fmt.Errorf("RecurrenceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SetActive", "rule_id", id, "active", active)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to change rule active flag", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "rule active flag changed")
	}()

	existing, err := s.rules.GetRule(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	rule = toApplicationRule(existing)
	rule.Active = active
	rule.UpdatedAt = s.now()

	if err = s.rules.UpdateRule(ctx, toPersistenceRule(rule)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// DeleteRule removes a rule. Interventions materialized from it survive with
// their back-reference cleared.
func (s *RecurrenceService) DeleteRule(ctx context.Context, id string) (err error) {
	if s == nil {
		return fmt.Errorf("RecurrenceService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteRule", "rule_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete rule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "rule deleted")
	}()

	if err = s.rules.DeleteRule(ctx, id); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// ExtendStaleRules moves the end date of active rules that already lapsed
// forward to December 31 of the current year. Run at startup so recurring
// appointments keep appearing after the new year.
func (s *RecurrenceService) ExtendStaleRules(ctx context.Context) (extended int64, err error) {
	if s == nil {
		return 0, fmt.Errorf("RecurrenceService is nil")
	}

	logger := s.loggerWith(ctx, "ExtendStaleRules")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to extend stale rules", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("extended", extended).InfoContext(ctx, "stale rules extended")
	}()

	today := calendar.DateOf(s.now())
	extended, err = s.rules.ExtendStaleRules(ctx, today.String(), today.EndOfYear().String())
	if err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// PreviewDates expands a rule over the given range without persisting
// anything.
func (s *RecurrenceService) PreviewDates(ctx context.Context, id string, from, to calendar.Date) ([]calendar.Date, error) {
	if s == nil {
		return nil, fmt.Errorf("RecurrenceService is nil")
	}
	stored, err := s.rules.GetRule(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	parsed, err := calendar.ParseRule(ruleRecord(stored))
	if err != nil {
		return nil, fmt.Errorf("rule %s is not expandable: %w", id, err)
	}
	return calendar.Expand(parsed, from, to), nil
}

func (s *RecurrenceService) normalizeRuleInput(input RuleInput) RuleInput {
	input.ClientID = strings.TrimSpace(input.ClientID)
	input.ServiceID = strings.TrimSpace(input.ServiceID)
	input.StartTime = strings.TrimSpace(input.StartTime)
	input.Note = strings.TrimSpace(input.Note)
	input.StartDate = normalizeOptionalDate(input.StartDate)
	input.EndDate = normalizeOptionalDate(input.EndDate)

	today := calendar.DateOf(s.now())
	if input.StartDate == nil {
		start := today.String()
		input.StartDate = &start
	}
	if input.EndDate == nil {
		end := today.EndOfYear().String()
		input.EndDate = &end
	}

	seen := make(map[int]bool, len(input.Weekdays))
	weekdays := make([]int, 0, len(input.Weekdays))
	for _, wd := range input.Weekdays {
		if !seen[wd] {
			seen[wd] = true
			weekdays = append(weekdays, wd)
		}
	}
	sort.Ints(weekdays)
	input.Weekdays = weekdays

	trimmed := make([]string, 0, len(input.EmployeeIDs))
	for _, id := range input.EmployeeIDs {
		if id = strings.TrimSpace(id); id != "" {
			trimmed = append(trimmed, id)
		}
	}
	input.EmployeeIDs = trimmed
	return input
}

func (s *RecurrenceService) validateRule(ctx context.Context, input RuleInput) error {
	vErr := &ValidationError{}
	if input.ClientID == "" {
		vErr.add("client_id", "client is required")
	}
	if input.ServiceID == "" {
		vErr.add("service_id", "service is required")
	}
	if !calendar.ValidTime(input.StartTime) {
		vErr.add("start_time", "start time must be HH:MM")
	}
	if input.DurationHours <= 0 {
		vErr.add("duration_hours", "duration must be positive")
	}
	if len(input.Weekdays) == 0 {
		vErr.add("weekdays", "at least one weekday is required")
	}
	for _, wd := range input.Weekdays {
		if wd < 1 || wd > 7 {
			vErr.add("weekdays", fmt.Sprintf("weekday %d is outside 1 (Monday) to 7 (Sunday)", wd))
			break
		}
	}

	var start, end calendar.Date
	startOK, endOK := false, false
	if input.StartDate != nil {
		if parsed, err := calendar.ParseDate(*input.StartDate); err != nil {
			vErr.add("start_date", "start date must be an ISO date (YYYY-MM-DD)")
		} else {
			start, startOK = parsed, true
		}
	}
	if input.EndDate != nil {
		if parsed, err := calendar.ParseDate(*input.EndDate); err != nil {
			vErr.add("end_date", "end date must be an ISO date (YYYY-MM-DD)")
		} else {
			end, endOK = parsed, true
		}
	}
	if startOK && endOK && end.Before(start) {
		vErr.add("end_date", "end date must not precede start date")
	}
	if vErr.HasErrors() {
		return vErr
	}

	if _, err := s.clients.GetClient(ctx, input.ClientID); err != nil {
		if mapped := mapRepoError(err); mapped == ErrNotFound {
			vErr.add("client_id", "client does not exist")
		} else {
			return mapped
		}
	}
	if _, err := s.services.GetService(ctx, input.ServiceID); err != nil {
		if mapped := mapRepoError(err); mapped == ErrNotFound {
			vErr.add("service_id", "service does not exist")
		} else {
			return mapped
		}
	}
	for _, employeeID := range input.EmployeeIDs {
		if _, err := s.employees.GetEmployee(ctx, employeeID); err != nil {
			if mapped := mapRepoError(err); mapped == ErrNotFound {
				vErr.add("employee_ids", fmt.Sprintf("employee %s does not exist", employeeID))
			} else {
				return mapped
			}
		}
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// ruleRecord shapes a stored rule for the calendar engine.
func ruleRecord(model persistence.RecurrenceRule) calendar.RuleRecord {
	return calendar.RuleRecord{
		ID:        model.ID,
		Weekdays:  model.Weekdays,
		StartDate: model.StartDate,
		EndDate:   model.EndDate,
		Active:    model.Active,
		StartTime: model.StartTime,
		Duration:  model.DurationHours,
	}
}

func toPersistenceRule(rule RecurrenceRule) persistence.RecurrenceRule {
	return persistence.RecurrenceRule{
		ID:            rule.ID,
		ClientID:      rule.ClientID,
		ServiceID:     rule.ServiceID,
		StartTime:     rule.StartTime,
		DurationHours: rule.DurationHours,
		StartDate:     rule.StartDate,
		EndDate:       rule.EndDate,
		Active:        rule.Active,
		Note:          rule.Note,
		Weekdays:      rule.Weekdays,
		EmployeeIDs:   rule.EmployeeIDs,
		CreatedAt:     rule.CreatedAt,
		UpdatedAt:     rule.UpdatedAt,
	}
}

func toApplicationRule(model persistence.RecurrenceRule) RecurrenceRule {
	return RecurrenceRule{
		ID:            model.ID,
		ClientID:      model.ClientID,
		ServiceID:     model.ServiceID,
		StartTime:     model.StartTime,
		DurationHours: model.DurationHours,
		StartDate:     model.StartDate,
		EndDate:       model.EndDate,
		Active:        model.Active,
		Note:          model.Note,
		Weekdays:      model.Weekdays,
		EmployeeIDs:   model.EmployeeIDs,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
