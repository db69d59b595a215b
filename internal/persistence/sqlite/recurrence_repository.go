package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/example/service-agenda/internal/persistence"
)

// RecurrenceRuleRepository implements persistence.RecurrenceRuleRepository
// using SQLite. Weekday and employee sets are replaced wholesale inside the
// parent row's transaction.
type RecurrenceRuleRepository struct {
	pool *ConnectionPool
}

// NewRecurrenceRuleRepository creates a new SQLite recurrence rule repository.
func NewRecurrenceRuleRepository(pool *ConnectionPool) *RecurrenceRuleRepository {
	return &RecurrenceRuleRepository{pool: pool}
}

// CreateRule inserts a new recurrence rule with its weekday and employee sets.
func (r *RecurrenceRuleRepository) CreateRule(ctx context.Context, rule persistence.RecurrenceRule) error {
	if rule.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO recurrence_rules (id, client_id, service_id, start_time, duration_hours, start_date, end_date, active, note, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rule.ID,
			rule.ClientID,
			rule.ServiceID,
			rule.StartTime,
			rule.DurationHours,
			nullString(rule.StartDate),
			nullString(rule.EndDate),
			boolToInt(rule.Active),
			rule.Note,
			rule.CreatedAt.Format(time.RFC3339),
			rule.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return mapError(err)
		}
		if err := replaceRuleWeekdays(tx, rule.ID, rule.Weekdays); err != nil {
			return err
		}
		return replaceRuleEmployees(tx, rule.ID, rule.EmployeeIDs)
	})
}

// UpdateRule updates a rule row and replaces both of its sets.
func (r *RecurrenceRuleRepository) UpdateRule(ctx context.Context, rule persistence.RecurrenceRule) error {
	rule.UpdatedAt = time.Now().UTC()

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE recurrence_rules
			SET client_id = ?, service_id = ?, start_time = ?, duration_hours = ?, start_date = ?, end_date = ?, active = ?, note = ?, updated_at = ?
			WHERE id = ?`,
			rule.ClientID,
			rule.ServiceID,
			rule.StartTime,
			rule.DurationHours,
			nullString(rule.StartDate),
			nullString(rule.EndDate),
			boolToInt(rule.Active),
			rule.Note,
			rule.UpdatedAt.Format(time.RFC3339),
			rule.ID,
		)
		if err != nil {
			return mapError(err)
		}
		if err := requireRowAffected(result); err != nil {
			return err
		}

		if _, err := tx.Exec("DELETE FROM rule_weekdays WHERE rule_id = ?", rule.ID); err != nil {
			return mapError(err)
		}
		if err := replaceRuleWeekdays(tx, rule.ID, rule.Weekdays); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM rule_employees WHERE rule_id = ?", rule.ID); err != nil {
			return mapError(err)
		}
		return replaceRuleEmployees(tx, rule.ID, rule.EmployeeIDs)
	})
}

// GetRule retrieves a rule with its weekday and employee sets.
func (r *RecurrenceRuleRepository) GetRule(ctx context.Context, id string) (persistence.RecurrenceRule, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, client_id, service_id, start_time, duration_hours, start_date, end_date, active, note, created_at, updated_at
		FROM recurrence_rules WHERE id = ?`, id)

	rule, err := scanRule(row)
	if err != nil {
		return persistence.RecurrenceRule{}, err
	}
	if err := r.loadSets(ctx, &rule); err != nil {
		return persistence.RecurrenceRule{}, err
	}
	return rule, nil
}

// ListRules returns every rule regardless of active state.
func (r *RecurrenceRuleRepository) ListRules(ctx context.Context) ([]persistence.RecurrenceRule, error) {
	return r.list(ctx, `
		SELECT id, client_id, service_id, start_time, duration_hours, start_date, end_date, active, note, created_at, updated_at
		FROM recurrence_rules ORDER BY created_at ASC, id ASC`)
}

// ListActiveRules returns rules with the active flag set.
func (r *RecurrenceRuleRepository) ListActiveRules(ctx context.Context) ([]persistence.RecurrenceRule, error) {
	return r.list(ctx, `
		SELECT id, client_id, service_id, start_time, duration_hours, start_date, end_date, active, note, created_at, updated_at
		FROM recurrence_rules WHERE active = 1 ORDER BY created_at ASC, id ASC`)
}

// DeleteRule removes a rule. Materialized interventions that reference it
// keep their rows; the rule_id back-reference goes NULL through the declared
// ON DELETE SET NULL, and the weekday/employee sets cascade away.
func (r *RecurrenceRuleRepository) DeleteRule(ctx context.Context, id string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM recurrence_rules WHERE id = ?", id)
		if err != nil {
			return mapError(err)
		}
		return requireRowAffected(result)
	})
}

// ExtendStaleRules pushes the end date of active rules whose end date has
// passed forward to endOfYear. Idempotent: a second run finds nothing stale.
func (r *RecurrenceRuleRepository) ExtendStaleRules(ctx context.Context, today string, endOfYear string) (int64, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE recurrence_rules
		SET end_date = ?, updated_at = ?
		WHERE active = 1
		  AND end_date IS NOT NULL
		  AND end_date < ?`,
		endOfYear, time.Now().UTC().Format(time.RFC3339), today)
	if err != nil {
		return 0, mapError(err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	return updated, nil
}

func (r *RecurrenceRuleRepository) list(ctx context.Context, query string, args ...any) ([]persistence.RecurrenceRule, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rules []persistence.RecurrenceRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for i := range rules {
		if err := r.loadSets(ctx, &rules[i]); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

func (r *RecurrenceRuleRepository) loadSets(ctx context.Context, rule *persistence.RecurrenceRule) error {
	weekdayRows, err := r.pool.db.QueryContext(ctx,
		"SELECT weekday FROM rule_weekdays WHERE rule_id = ? ORDER BY weekday ASC", rule.ID)
	if err != nil {
		return mapError(err)
	}
	defer weekdayRows.Close()
	for weekdayRows.Next() {
		var weekday int
		if err := weekdayRows.Scan(&weekday); err != nil {
			return mapError(err)
		}
		rule.Weekdays = append(rule.Weekdays, weekday)
	}
	if err := weekdayRows.Err(); err != nil {
		return mapError(err)
	}

	employeeRows, err := r.pool.db.QueryContext(ctx,
		"SELECT employee_id FROM rule_employees WHERE rule_id = ? ORDER BY employee_id ASC", rule.ID)
	if err != nil {
		return mapError(err)
	}
	defer employeeRows.Close()
	for employeeRows.Next() {
		var id string
		if err := employeeRows.Scan(&id); err != nil {
			return mapError(err)
		}
		rule.EmployeeIDs = append(rule.EmployeeIDs, id)
	}
	return employeeRows.Err()
}

func replaceRuleWeekdays(tx *sql.Tx, ruleID string, weekdays []int) error {
	seen := make(map[int]struct{}, len(weekdays))
	ordered := make([]int, 0, len(weekdays))
	for _, weekday := range weekdays {
		if _, ok := seen[weekday]; ok {
			continue
		}
		seen[weekday] = struct{}{}
		ordered = append(ordered, weekday)
	}
	sort.Ints(ordered)

	for _, weekday := range ordered {
		if _, err := tx.Exec(
			"INSERT INTO rule_weekdays (rule_id, weekday) VALUES (?, ?)",
			ruleID, weekday); err != nil {
			return mapError(err)
		}
	}
	return nil
}

func replaceRuleEmployees(tx *sql.Tx, ruleID string, employeeIDs []string) error {
	for _, employeeID := range uniqueSorted(employeeIDs) {
		if _, err := tx.Exec(
			"INSERT INTO rule_employees (rule_id, employee_id) VALUES (?, ?)",
			ruleID, employeeID); err != nil {
			return mapError(err)
		}
	}
	return nil
}

func scanRule(row rowScanner) (persistence.RecurrenceRule, error) {
	var (
		rule                 persistence.RecurrenceRule
		startDate, endDate   sql.NullString
		active               int
		createdAt, updatedAt string
	)
	err := row.Scan(
		&rule.ID,
		&rule.ClientID,
		&rule.ServiceID,
		&rule.StartTime,
		&rule.DurationHours,
		&startDate,
		&endDate,
		&active,
		&rule.Note,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.RecurrenceRule{}, mapError(err)
	}
	rule.StartDate = fromNullString(startDate)
	rule.EndDate = fromNullString(endDate)
	rule.Active = active != 0
	if rule.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.RecurrenceRule{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if rule.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.RecurrenceRule{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	return rule, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
