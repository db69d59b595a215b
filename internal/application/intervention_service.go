package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/service-agenda/internal/calendar"
	"github.com/example/service-agenda/internal/persistence"
)

// InterventionRepository captures the persistence operations needed by the
// service.
type InterventionRepository interface {
	CreateIntervention(ctx context.Context, intervention persistence.Intervention) error
	UpdateIntervention(ctx context.Context, intervention persistence.Intervention) error
	GetIntervention(ctx context.Context, id string) (persistence.Intervention, error)
	ListInterventions(ctx context.Context) ([]persistence.Intervention, error)
	ListInterventionsInMonth(ctx context.Context, year int, month int) ([]persistence.Intervention, error)
	DeleteIntervention(ctx context.Context, id string) error
}

// InterventionService orchestrates validation and persistence for one-off
// interventions.
type InterventionService struct {
	interventions InterventionRepository
	clients       ClientRepository
	services      ServiceRepository
	employees     EmployeeRepository
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewInterventionService wires dependencies for intervention operations.
func NewInterventionService(
	interventions InterventionRepository,
	clients ClientRepository,
	services ServiceRepository,
	employees EmployeeRepository,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *InterventionService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &InterventionService{
		interventions: interventions,
		clients:       clients,
		services:      services,
		employees:     employees,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *InterventionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "InterventionService", operation, attrs...)
}

// CreateIntervention validates input and persists a new one-off
// intervention. An empty status defaults to Scheduled.
func (s *InterventionService) CreateIntervention(ctx context.Context, input InterventionInput) (intervention Intervention, err error) {
	if s == nil {
		err = fmt.Errorf("InterventionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateIntervention")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create intervention", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("intervention_id", intervention.ID).InfoContext(ctx, "intervention created")
	}()

	input = normalizeInterventionInput(input)
	if err = s.validateIntervention(ctx, input); err != nil {
		return
	}

	now := s.now()
	intervention = Intervention{
		ID:            s.idGenerator(),
		ClientID:      input.ClientID,
		ServiceID:     input.ServiceID,
		Date:          input.Date,
		StartTime:     input.StartTime,
		DurationHours: input.DurationHours,
		Status:        input.Status,
		Note:          input.Note,
		EmployeeIDs:   input.EmployeeIDs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err = s.interventions.CreateIntervention(ctx, toPersistenceIntervention(intervention)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// UpdateIntervention validates input and updates an existing intervention.
// The rule back-reference, when present, is preserved.
func (s *InterventionService) UpdateIntervention(ctx context.Context, id string, input InterventionInput) (intervention Intervention, err error) {
	if s == nil {
		err = fmt.Errorf("InterventionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateIntervention", "intervention_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update intervention", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "intervention updated")
	}()

	existing, err := s.interventions.GetIntervention(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	input = normalizeInterventionInput(input)
	if err = s.validateIntervention(ctx, input); err != nil {
		return
	}

	intervention = toApplicationIntervention(existing)
	intervention.ClientID = input.ClientID
	intervention.ServiceID = input.ServiceID
	intervention.Date = input.Date
	intervention.StartTime = input.StartTime
	intervention.DurationHours = input.DurationHours
	intervention.Status = input.Status
	intervention.Note = input.Note
	intervention.EmployeeIDs = input.EmployeeIDs
	intervention.UpdatedAt = s.now()

	if err = s.interventions.UpdateIntervention(ctx, toPersistenceIntervention(intervention)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// GetIntervention retrieves an intervention by ID.
func (s *InterventionService) GetIntervention(ctx context.Context, id string) (Intervention, error) {
	if s == nil {
		return Intervention{}, fmt.Errorf("InterventionService is nil")
	}
	stored, err := s.interventions.GetIntervention(ctx, id)
	if err != nil {
		return Intervention{}, mapRepoError(err)
	}
	return toApplicationIntervention(stored), nil
}

// ListInterventions returns all interventions in stored order.
func (s *InterventionService) ListInterventions(ctx context.Context) ([]Intervention, error) {
	if s == nil {
		return nil, fmt.Errorf("InterventionService is nil")
	}
	stored, err := s.interventions.ListInterventions(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	interventions := make([]Intervention, 0, len(stored))
	for _, model := range stored {
		interventions = append(interventions, toApplicationIntervention(model))
	}
	return interventions, nil
}

// SetStatus changes only the status of an existing intervention.
func (s *InterventionService) SetStatus(ctx context.Context, id string, status string) (intervention Intervention, err error) {
	if s == nil {
		err = fmt.Errorf("InterventionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SetStatus", "intervention_id", id, "status", status)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to change intervention status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "intervention status changed")
	}()

	if !validStatus(status) {
		vErr := &ValidationError{}
		vErr.add("status", "status must be Scheduled, Completed or Cancelled")
		err = vErr
		return
	}

	existing, err := s.interventions.GetIntervention(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	intervention = toApplicationIntervention(existing)
	intervention.Status = status
	intervention.UpdatedAt = s.now()

	if err = s.interventions.UpdateIntervention(ctx, toPersistenceIntervention(intervention)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// DeleteIntervention removes an intervention and its employee assignments.
func (s *InterventionService) DeleteIntervention(ctx context.Context, id string) (err error) {
	if s == nil {
		return fmt.Errorf("InterventionService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteIntervention", "intervention_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete intervention", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "intervention deleted")
	}()

	if err = s.interventions.DeleteIntervention(ctx, id); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

func normalizeInterventionInput(input InterventionInput) InterventionInput {
	input.ClientID = strings.TrimSpace(input.ClientID)
	input.ServiceID = strings.TrimSpace(input.ServiceID)
	input.Date = strings.TrimSpace(input.Date)
	input.StartTime = strings.TrimSpace(input.StartTime)
	input.Note = strings.TrimSpace(input.Note)
	input.Status = strings.TrimSpace(input.Status)
	if input.Status == "" {
		input.Status = StatusScheduled
	}
	trimmed := make([]string, 0, len(input.EmployeeIDs))
	for _, id := range input.EmployeeIDs {
		if id = strings.TrimSpace(id); id != "" {
			trimmed = append(trimmed, id)
		}
	}
	input.EmployeeIDs = trimmed
	return input
}

func (s *InterventionService) validateIntervention(ctx context.Context, input InterventionInput) error {
	vErr := &ValidationError{}
	if input.ClientID == "" {
		vErr.add("client_id", "client is required")
	}
	if input.ServiceID == "" {
		vErr.add("service_id", "service is required")
	}
	if _, err := calendar.ParseDate(input.Date); err != nil {
		vErr.add("date", "date must be an ISO date (YYYY-MM-DD)")
	}
	if !calendar.ValidTime(input.StartTime) {
		vErr.add("start_time", "start time must be HH:MM")
	}
	if input.DurationHours <= 0 {
		vErr.add("duration_hours", "duration must be positive")
	}
	if !validStatus(input.Status) {
		vErr.add("status", "status must be Scheduled, Completed or Cancelled")
	}
	if vErr.HasErrors() {
		return vErr
	}

	// Referenced entities must exist before handing the row to SQLite, so
	// the caller gets a field error rather than a bare constraint failure.
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

func validStatus(status string) bool {
	switch status {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func toPersistenceIntervention(intervention Intervention) persistence.Intervention {
	return persistence.Intervention{
		ID:            intervention.ID,
		ClientID:      intervention.ClientID,
		ServiceID:     intervention.ServiceID,
		Date:          intervention.Date,
		StartTime:     intervention.StartTime,
		DurationHours: intervention.DurationHours,
		Status:        intervention.Status,
		Note:          intervention.Note,
		RuleID:        intervention.RuleID,
		EmployeeIDs:   intervention.EmployeeIDs,
		CreatedAt:     intervention.CreatedAt,
		UpdatedAt:     intervention.UpdatedAt,
	}
}

func toApplicationIntervention(model persistence.Intervention) Intervention {
	return Intervention{
		ID:            model.ID,
		ClientID:      model.ClientID,
		ServiceID:     model.ServiceID,
		Date:          model.Date,
		StartTime:     model.StartTime,
		DurationHours: model.DurationHours,
		Status:        model.Status,
		Note:          model.Note,
		RuleID:        model.RuleID,
		EmployeeIDs:   model.EmployeeIDs,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
