package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Migration is one versioned schema step. Versions start at 1 and must be
// contiguous; statements run inside a single transaction.
type Migration struct {
	Version     int
	Description string
	Statements  []string
}

// AppliedMigration records a migration row from the schema_migrations table.
type AppliedMigration struct {
	Version       int
	AppliedAt     time.Time
	ExecutionTime time.Duration
}

// ErrVersionGap indicates a hole in the declared migration sequence.
var ErrVersionGap = errors.New("migration: version sequence has a gap")

// ErrUnknownApplied indicates the database recorded a version that is not in
// the declared list, usually a downgrade of the binary.
var ErrUnknownApplied = errors.New("migration: applied version not in declared migrations")

// Runner applies a declared migration list against a database in order,
// tracking progress in schema_migrations.
type Runner struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRunner constructs a Runner. A nil logger falls back to slog.Default.
func NewRunner(db *sql.DB, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{db: db, logger: logger}
}

// Run applies every pending migration in version order. It is idempotent:
// already-applied versions are skipped, and a rerun with no pending work is a
// no-op.
func (r *Runner) Run(ctx context.Context, migrations []Migration) error {
	if err := r.initVersionTable(ctx); err != nil {
		return err
	}

	ordered := make([]Migration, len(migrations))
	copy(ordered, migrations)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return err
	}

	if err := validateSequence(ordered, applied); err != nil {
		return err
	}

	pending := 0
	for _, m := range ordered {
		if _, ok := applied[m.Version]; ok {
			continue
		}
		pending++

		start := time.Now()
		if err := r.apply(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		r.logger.Info("migration applied",
			"version", m.Version,
			"description", m.Description,
			"duration", time.Since(start),
		)
	}

	if pending == 0 {
		r.logger.Debug("schema up to date", "versions", len(ordered))
	}
	return nil
}

// Applied returns the recorded migration history, oldest first.
func (r *Runner) Applied(ctx context.Context) ([]AppliedMigration, error) {
	if err := r.initVersionTable(ctx); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT version, applied_at, execution_ms FROM schema_migrations ORDER BY version ASC")
	if err != nil {
		return nil, fmt.Errorf("migration: query history: %w", err)
	}
	defer rows.Close()

	var history []AppliedMigration
	for rows.Next() {
		var (
			entry       AppliedMigration
			appliedAt   string
			executionMS int64
		)
		if err := rows.Scan(&entry.Version, &appliedAt, &executionMS); err != nil {
			return nil, fmt.Errorf("migration: scan history: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, appliedAt); err == nil {
			entry.AppliedAt = ts
		}
		entry.ExecutionTime = time.Duration(executionMS) * time.Millisecond
		history = append(history, entry)
	}
	return history, rows.Err()
}

func (r *Runner) initVersionTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL,
			execution_ms INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migration: initialize version table: %w", err)
	}
	return nil
}

func (r *Runner) appliedVersions(ctx context.Context) (map[int]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("migration: query applied versions: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]struct{})
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("migration: scan applied version: %w", err)
		}
		applied[version] = struct{}{}
	}
	return applied, rows.Err()
}

func (r *Runner) apply(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	start := time.Now()

	for _, statement := range m.Statements {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at, execution_ms) VALUES (?, ?, ?)",
		m.Version,
		time.Now().UTC().Format(time.RFC3339),
		time.Since(start).Milliseconds(),
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record: %w", err)
	}

	return tx.Commit()
}

func validateSequence(ordered []Migration, applied map[int]struct{}) error {
	declared := make(map[int]struct{}, len(ordered))
	for i, m := range ordered {
		if m.Version != i+1 {
			return fmt.Errorf("%w: expected version %d, found %d", ErrVersionGap, i+1, m.Version)
		}
		declared[m.Version] = struct{}{}
	}
	for version := range applied {
		if _, ok := declared[version]; !ok {
			return fmt.Errorf("%w: version %d", ErrUnknownApplied, version)
		}
	}
	return nil
}
