package sqlite

import (
	"context"
	"log/slog"

	"github.com/example/service-agenda/internal/persistence/sqlite/migration"
)

// Migrations is the ordered schema history of the agenda database. Append
// only; never edit an applied version.
func Migrations() []migration.Migration {
	return []migration.Migration{
		{
			Version:     1,
			Description: "initial agenda schema",
			Statements: []string{
				`CREATE TABLE clients (
					id TEXT PRIMARY KEY,
					first_name TEXT NOT NULL,
					last_name TEXT NOT NULL,
					phone TEXT NOT NULL DEFAULT '',
					address TEXT NOT NULL DEFAULT '',
					email TEXT NOT NULL DEFAULT '',
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)`,
				`CREATE TABLE employees (
					id TEXT PRIMARY KEY,
					first_name TEXT NOT NULL,
					last_name TEXT NOT NULL,
					phone TEXT NOT NULL DEFAULT '',
					email TEXT NOT NULL DEFAULT '',
					role TEXT NOT NULL DEFAULT '',
					weekly_hours INTEGER NOT NULL DEFAULT 0,
					salary REAL NOT NULL DEFAULT 0,
					contract_end TEXT,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)`,
				`CREATE TABLE services (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					monthly_price REAL NOT NULL DEFAULT 0,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)`,
				`CREATE TABLE recurrence_rules (
					id TEXT PRIMARY KEY,
					client_id TEXT NOT NULL REFERENCES clients(id),
					service_id TEXT NOT NULL REFERENCES services(id),
					start_time TEXT NOT NULL,
					duration_hours REAL NOT NULL DEFAULT 0,
					start_date TEXT,
					end_date TEXT,
					active INTEGER NOT NULL DEFAULT 1,
					note TEXT NOT NULL DEFAULT '',
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)`,
				`CREATE TABLE interventions (
					id TEXT PRIMARY KEY,
					client_id TEXT NOT NULL REFERENCES clients(id),
					service_id TEXT NOT NULL REFERENCES services(id),
					date TEXT NOT NULL,
					start_time TEXT NOT NULL,
					duration_hours REAL NOT NULL DEFAULT 0,
					status TEXT NOT NULL DEFAULT 'Scheduled'
						CHECK (status IN ('Scheduled', 'Completed', 'Cancelled')),
					note TEXT NOT NULL DEFAULT '',
					rule_id TEXT REFERENCES recurrence_rules(id) ON DELETE SET NULL,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)`,
				`CREATE TABLE intervention_employees (
					intervention_id TEXT NOT NULL REFERENCES interventions(id) ON DELETE CASCADE,
					employee_id TEXT NOT NULL REFERENCES employees(id),
					PRIMARY KEY (intervention_id, employee_id)
				)`,
				`CREATE TABLE rule_weekdays (
					rule_id TEXT NOT NULL REFERENCES recurrence_rules(id) ON DELETE CASCADE,
					weekday INTEGER NOT NULL CHECK (weekday BETWEEN 1 AND 7),
					PRIMARY KEY (rule_id, weekday)
				)`,
				`CREATE TABLE rule_employees (
					rule_id TEXT NOT NULL REFERENCES recurrence_rules(id) ON DELETE CASCADE,
					employee_id TEXT NOT NULL REFERENCES employees(id),
					PRIMARY KEY (rule_id, employee_id)
				)`,
			},
		},
		{
			Version:     2,
			Description: "lookup indexes for month queries and rule back-references",
			Statements: []string{
				`CREATE INDEX idx_interventions_date ON interventions(date)`,
				`CREATE INDEX idx_interventions_rule ON interventions(rule_id)`,
				`CREATE INDEX idx_rules_active ON recurrence_rules(active, end_date)`,
			},
		},
	}
}

// Migrate applies the full schema history to the pool's database.
func (cp *ConnectionPool) Migrate(ctx context.Context, logger *slog.Logger) error {
	return migration.NewRunner(cp.db, logger).Run(ctx, Migrations())
}
