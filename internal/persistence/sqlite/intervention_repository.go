package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/example/service-agenda/internal/persistence"
)

// InterventionRepository implements persistence.InterventionRepository using
// SQLite. Employee assignment sets live in intervention_employees and are
// replaced wholesale inside the same transaction as the parent row, so a
// reader never observes a half-updated set.
type InterventionRepository struct {
	pool *ConnectionPool
}

// NewInterventionRepository creates a new SQLite intervention repository.
func NewInterventionRepository(pool *ConnectionPool) *InterventionRepository {
	return &InterventionRepository{pool: pool}
}

// CreateIntervention inserts a new intervention with its assignment set.
func (r *InterventionRepository) CreateIntervention(ctx context.Context, intervention persistence.Intervention) error {
	if intervention.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	intervention.CreatedAt = now
	intervention.UpdatedAt = now

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO interventions (id, client_id, service_id, date, start_time, duration_hours, status, note, rule_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			intervention.ID,
			intervention.ClientID,
			intervention.ServiceID,
			intervention.Date,
			intervention.StartTime,
			intervention.DurationHours,
			intervention.Status,
			intervention.Note,
			nullString(intervention.RuleID),
			intervention.CreatedAt.Format(time.RFC3339),
			intervention.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return mapError(err)
		}
		return insertInterventionEmployees(tx, intervention.ID, intervention.EmployeeIDs)
	})
}

// UpdateIntervention updates an intervention row and replaces its assignment
// set.
func (r *InterventionRepository) UpdateIntervention(ctx context.Context, intervention persistence.Intervention) error {
	intervention.UpdatedAt = time.Now().UTC()

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE interventions
			SET client_id = ?, service_id = ?, date = ?, start_time = ?, duration_hours = ?, status = ?, note = ?, rule_id = ?, updated_at = ?
			WHERE id = ?`,
			intervention.ClientID,
			intervention.ServiceID,
			intervention.Date,
			intervention.StartTime,
			intervention.DurationHours,
			intervention.Status,
			intervention.Note,
			nullString(intervention.RuleID),
			intervention.UpdatedAt.Format(time.RFC3339),
			intervention.ID,
		)
		if err != nil {
			return mapError(err)
		}
		if err := requireRowAffected(result); err != nil {
			return err
		}

		if _, err := tx.Exec("DELETE FROM intervention_employees WHERE intervention_id = ?", intervention.ID); err != nil {
			return mapError(err)
		}
		return insertInterventionEmployees(tx, intervention.ID, intervention.EmployeeIDs)
	})
}

// GetIntervention retrieves an intervention with its assignment set.
func (r *InterventionRepository) GetIntervention(ctx context.Context, id string) (persistence.Intervention, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, client_id, service_id, date, start_time, duration_hours, status, note, rule_id, created_at, updated_at
		FROM interventions WHERE id = ?`, id)

	intervention, err := scanIntervention(row)
	if err != nil {
		return persistence.Intervention{}, err
	}

	intervention.EmployeeIDs, err = r.loadEmployees(ctx, id)
	if err != nil {
		return persistence.Intervention{}, err
	}
	return intervention, nil
}

// ListInterventions returns every intervention, newest date first, matching
// the flat listing order of the agenda table.
func (r *InterventionRepository) ListInterventions(ctx context.Context) ([]persistence.Intervention, error) {
	return r.list(ctx, `
		SELECT id, client_id, service_id, date, start_time, duration_hours, status, note, rule_id, created_at, updated_at
		FROM interventions ORDER BY date DESC, start_time ASC, id ASC`)
}

// ListInterventionsInMonth returns interventions whose stored date falls in
// the given month. The ISO date format makes the range a string comparison.
func (r *InterventionRepository) ListInterventionsInMonth(ctx context.Context, year int, month int) ([]persistence.Intervention, error) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	return r.list(ctx, `
		SELECT id, client_id, service_id, date, start_time, duration_hours, status, note, rule_id, created_at, updated_at
		FROM interventions
		WHERE date >= ? AND date < ?
		ORDER BY date ASC, start_time ASC, id ASC`,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// DeleteIntervention removes an intervention. The assignment set goes with it
// through the declared ON DELETE CASCADE; no manual child delete is needed.
func (r *InterventionRepository) DeleteIntervention(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM interventions WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

func (r *InterventionRepository) list(ctx context.Context, query string, args ...any) ([]persistence.Intervention, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var interventions []persistence.Intervention
	for rows.Next() {
		intervention, err := scanIntervention(rows)
		if err != nil {
			return nil, err
		}
		interventions = append(interventions, intervention)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for i := range interventions {
		interventions[i].EmployeeIDs, err = r.loadEmployees(ctx, interventions[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return interventions, nil
}

func (r *InterventionRepository) loadEmployees(ctx context.Context, interventionID string) ([]string, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT employee_id FROM intervention_employees
		WHERE intervention_id = ? ORDER BY employee_id ASC`, interventionID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func insertInterventionEmployees(tx *sql.Tx, interventionID string, employeeIDs []string) error {
	for _, employeeID := range uniqueSorted(employeeIDs) {
		_, err := tx.Exec(
			"INSERT INTO intervention_employees (intervention_id, employee_id) VALUES (?, ?)",
			interventionID, employeeID)
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}

func scanIntervention(row rowScanner) (persistence.Intervention, error) {
	var (
		intervention         persistence.Intervention
		ruleID               sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&intervention.ID,
		&intervention.ClientID,
		&intervention.ServiceID,
		&intervention.Date,
		&intervention.StartTime,
		&intervention.DurationHours,
		&intervention.Status,
		&intervention.Note,
		&ruleID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Intervention{}, mapError(err)
	}
	intervention.RuleID = fromNullString(ruleID)
	if intervention.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Intervention{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if intervention.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Intervention{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	return intervention, nil
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	sort.Strings(result)
	return result
}
