package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/service-agenda/internal/persistence"
)

// ClientRepository implements persistence.ClientRepository using SQLite.
type ClientRepository struct {
	pool *ConnectionPool
}

// NewClientRepository creates a new SQLite client repository.
func NewClientRepository(pool *ConnectionPool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

// CreateClient inserts a new client row.
func (r *ClientRepository) CreateClient(ctx context.Context, client persistence.Client) error {
	if client.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO clients (id, first_name, last_name, phone, address, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		client.ID,
		client.FirstName,
		client.LastName,
		client.Phone,
		client.Address,
		client.Email,
		client.CreatedAt.Format(time.RFC3339),
		client.UpdatedAt.Format(time.RFC3339),
	)
	return mapError(err)
}

// UpdateClient updates an existing client row.
func (r *ClientRepository) UpdateClient(ctx context.Context, client persistence.Client) error {
	client.UpdatedAt = time.Now().UTC()

	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE clients
		SET first_name = ?, last_name = ?, phone = ?, address = ?, email = ?, updated_at = ?
		WHERE id = ?`,
		client.FirstName,
		client.LastName,
		client.Phone,
		client.Address,
		client.Email,
		client.UpdatedAt.Format(time.RFC3339),
		client.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// GetClient retrieves a client by ID.
func (r *ClientRepository) GetClient(ctx context.Context, id string) (persistence.Client, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, phone, address, email, created_at, updated_at
		FROM clients WHERE id = ?`, id)
	return scanClient(row)
}

// ListClients returns all clients ordered by last name then first name, the
// order the original dialogs present them in.
func (r *ClientRepository) ListClients(ctx context.Context) ([]persistence.Client, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, phone, address, email, created_at, updated_at
		FROM clients ORDER BY last_name ASC, first_name ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var clients []persistence.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

// DeleteClient removes a client by ID. Callers are expected to have checked
// ClientReferenced first; the FK constraints back that check up.
func (r *ClientRepository) DeleteClient(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// ClientReferenced reports whether any intervention or recurrence rule still
// points at the client.
func (r *ClientRepository) ClientReferenced(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM interventions WHERE client_id = ?)
		     + (SELECT COUNT(*) FROM recurrence_rules WHERE client_id = ?)`,
		id, id,
	).Scan(&count)
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (persistence.Client, error) {
	var (
		client               persistence.Client
		createdAt, updatedAt string
	)
	err := row.Scan(
		&client.ID,
		&client.FirstName,
		&client.LastName,
		&client.Phone,
		&client.Address,
		&client.Email,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Client{}, mapError(err)
	}
	if client.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Client{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if client.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Client{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	return client, nil
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
