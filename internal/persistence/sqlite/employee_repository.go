package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/service-agenda/internal/persistence"
)

// EmployeeRepository implements persistence.EmployeeRepository using SQLite.
type EmployeeRepository struct {
	pool *ConnectionPool
}

// NewEmployeeRepository creates a new SQLite employee repository.
func NewEmployeeRepository(pool *ConnectionPool) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// CreateEmployee inserts a new employee row.
func (r *EmployeeRepository) CreateEmployee(ctx context.Context, employee persistence.Employee) error {
	if employee.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	employee.CreatedAt = now
	employee.UpdatedAt = now

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO employees (id, first_name, last_name, phone, email, role, weekly_hours, salary, contract_end, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		employee.ID,
		employee.FirstName,
		employee.LastName,
		employee.Phone,
		employee.Email,
		employee.Role,
		employee.WeeklyHours,
		employee.Salary,
		nullString(employee.ContractEnd),
		employee.CreatedAt.Format(time.RFC3339),
		employee.UpdatedAt.Format(time.RFC3339),
	)
	return mapError(err)
}

// UpdateEmployee updates an existing employee row.
func (r *EmployeeRepository) UpdateEmployee(ctx context.Context, employee persistence.Employee) error {
	employee.UpdatedAt = time.Now().UTC()

	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE employees
		SET first_name = ?, last_name = ?, phone = ?, email = ?, role = ?, weekly_hours = ?, salary = ?, contract_end = ?, updated_at = ?
		WHERE id = ?`,
		employee.FirstName,
		employee.LastName,
		employee.Phone,
		employee.Email,
		employee.Role,
		employee.WeeklyHours,
		employee.Salary,
		nullString(employee.ContractEnd),
		employee.UpdatedAt.Format(time.RFC3339),
		employee.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// GetEmployee retrieves an employee by ID.
func (r *EmployeeRepository) GetEmployee(ctx context.Context, id string) (persistence.Employee, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, phone, email, role, weekly_hours, salary, contract_end, created_at, updated_at
		FROM employees WHERE id = ?`, id)
	return scanEmployee(row)
}

// ListEmployees returns all employees ordered by last name then first name.
func (r *EmployeeRepository) ListEmployees(ctx context.Context) ([]persistence.Employee, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, phone, email, role, weekly_hours, salary, contract_end, created_at, updated_at
		FROM employees ORDER BY last_name ASC, first_name ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var employees []persistence.Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes an employee by ID.
func (r *EmployeeRepository) DeleteEmployee(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// EmployeeReferenced reports whether the employee appears in any assignment
// set, one-off or recurring.
func (r *EmployeeRepository) EmployeeReferenced(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM intervention_employees WHERE employee_id = ?)
		     + (SELECT COUNT(*) FROM rule_employees WHERE employee_id = ?)`,
		id, id,
	).Scan(&count)
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

func scanEmployee(row rowScanner) (persistence.Employee, error) {
	var (
		employee             persistence.Employee
		contractEnd          sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&employee.ID,
		&employee.FirstName,
		&employee.LastName,
		&employee.Phone,
		&employee.Email,
		&employee.Role,
		&employee.WeeklyHours,
		&employee.Salary,
		&contractEnd,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Employee{}, mapError(err)
	}
	employee.ContractEnd = fromNullString(contractEnd)
	if employee.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Employee{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if employee.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Employee{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	return employee, nil
}
