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

// EmployeeRepository captures the persistence operations needed by the service.
type EmployeeRepository interface {
	CreateEmployee(ctx context.Context, employee persistence.Employee) error
	UpdateEmployee(ctx context.Context, employee persistence.Employee) error
	GetEmployee(ctx context.Context, id string) (persistence.Employee, error)
	ListEmployees(ctx context.Context) ([]persistence.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
	EmployeeReferenced(ctx context.Context, id string) (bool, error)
}

// EmployeeService orchestrates validation and persistence for staff records.
type EmployeeService struct {
	employees   EmployeeRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEmployeeService wires dependencies for employee operations.
func NewEmployeeService(employees EmployeeRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EmployeeService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EmployeeService{employees: employees, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *EmployeeService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EmployeeService", operation, attrs...)
}

// CreateEmployee validates input and persists a new employee.
func (s *EmployeeService) CreateEmployee(ctx context.Context, input EmployeeInput) (employee Employee, err error) {
	if s == nil {
		err = fmt.Errorf("EmployeeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateEmployee")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create employee", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("employee_id", employee.ID).InfoContext(ctx, "employee created")
	}()

	vErr := &ValidationError{}
	validateEmployeeInput(input, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	employee = Employee{
		ID:          s.idGenerator(),
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		Phone:       strings.TrimSpace(input.Phone),
		Email:       strings.TrimSpace(input.Email),
		Role:        strings.TrimSpace(input.Role),
		WeeklyHours: input.WeeklyHours,
		Salary:      input.Salary,
		ContractEnd: normalizeOptionalDate(input.ContractEnd),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err = s.employees.CreateEmployee(ctx, toPersistenceEmployee(employee)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// UpdateEmployee validates input and updates an existing employee.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, id string, input EmployeeInput) (employee Employee, err error) {
	if s == nil {
		err = fmt.Errorf("EmployeeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateEmployee", "employee_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update employee", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "employee updated")
	}()

	existing, err := s.employees.GetEmployee(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	vErr := &ValidationError{}
	validateEmployeeInput(input, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	employee = toApplicationEmployee(existing)
	employee.FirstName = strings.TrimSpace(input.FirstName)
	employee.LastName = strings.TrimSpace(input.LastName)
	employee.Phone = strings.TrimSpace(input.Phone)
	employee.Email = strings.TrimSpace(input.Email)
	employee.Role = strings.TrimSpace(input.Role)
	employee.WeeklyHours = input.WeeklyHours
	employee.Salary = input.Salary
	employee.ContractEnd = normalizeOptionalDate(input.ContractEnd)
	employee.UpdatedAt = s.now()

	if err = s.employees.UpdateEmployee(ctx, toPersistenceEmployee(employee)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// GetEmployee retrieves an employee by ID.
func (s *EmployeeService) GetEmployee(ctx context.Context, id string) (Employee, error) {
	if s == nil {
		return Employee{}, fmt.Errorf("EmployeeService is nil")
	}
	stored, err := s.employees.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, mapRepoError(err)
	}
	return toApplicationEmployee(stored), nil
}

// ListEmployees returns all employees in the repository's display order.
func (s *EmployeeService) ListEmployees(ctx context.Context) ([]Employee, error) {
	if s == nil {
		return nil, fmt.Errorf("EmployeeService is nil")
	}
	stored, err := s.employees.ListEmployees(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	employees := make([]Employee, 0, len(stored))
	for _, model := range stored {
		employees = append(employees, toApplicationEmployee(model))
	}
	return employees, nil
}

// DeleteEmployee removes an employee unless an intervention or rule still
// assigns it.
func (s *EmployeeService) DeleteEmployee(ctx context.Context, id string) (err error) {
	if s == nil {
		return fmt.Errorf("EmployeeService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteEmployee", "employee_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete employee", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "employee deleted")
	}()

	referenced, err := s.employees.EmployeeReferenced(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if referenced {
		err = ErrReferentialIntegrity
		return
	}

	if err = s.employees.DeleteEmployee(ctx, id); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

func validateEmployeeInput(input EmployeeInput, vErr *ValidationError) {
	if strings.TrimSpace(input.FirstName) == "" {
		vErr.add("first_name", "first name is required")
	}
	if strings.TrimSpace(input.LastName) == "" {
		vErr.add("last_name", "last name is required")
	}
	if input.WeeklyHours < 0 {
		vErr.add("weekly_hours", "weekly hours must not be negative")
	}
	if input.Salary < 0 {
		vErr.add("salary", "salary must not be negative")
	}
	if input.ContractEnd != nil && strings.TrimSpace(*input.ContractEnd) != "" {
		if _, parseErr := calendar.ParseDate(strings.TrimSpace(*input.ContractEnd)); parseErr != nil {
			vErr.add("contract_end", "contract end must be an ISO date (YYYY-MM-DD)")
		}
	}
}

// normalizeOptionalDate trims the value and collapses blanks to nil.
func normalizeOptionalDate(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toPersistenceEmployee(employee Employee) persistence.Employee {
	return persistence.Employee{
		ID:          employee.ID,
		FirstName:   employee.FirstName,
		LastName:    employee.LastName,
		Phone:       employee.Phone,
		Email:       employee.Email,
		Role:        employee.Role,
		WeeklyHours: employee.WeeklyHours,
		Salary:      employee.Salary,
		ContractEnd: employee.ContractEnd,
		CreatedAt:   employee.CreatedAt,
		UpdatedAt:   employee.UpdatedAt,
	}
}

func toApplicationEmployee(model persistence.Employee) Employee {
	return Employee{
		ID:          model.ID,
		FirstName:   model.FirstName,
		LastName:    model.LastName,
		Phone:       model.Phone,
		Email:       model.Email,
		Role:        model.Role,
		WeeklyHours: model.WeeklyHours,
		Salary:      model.Salary,
		ContractEnd: model.ContractEnd,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
