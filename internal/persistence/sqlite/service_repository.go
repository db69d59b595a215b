package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/service-agenda/internal/persistence"
)

// ServiceRepository implements persistence.ServiceRepository using SQLite.
type ServiceRepository struct {
	pool *ConnectionPool
}

// NewServiceRepository creates a new SQLite service repository.
func NewServiceRepository(pool *ConnectionPool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

// CreateService inserts a new catalog service.
func (r *ServiceRepository) CreateService(ctx context.Context, service persistence.Service) error {
	if service.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	service.CreatedAt = now
	service.UpdatedAt = now

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO services (id, name, description, monthly_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		service.ID,
		service.Name,
		service.Description,
		service.MonthlyPrice,
		service.CreatedAt.Format(time.RFC3339),
		service.UpdatedAt.Format(time.RFC3339),
	)
	return mapError(err)
}

// UpdateService updates an existing catalog service.
func (r *ServiceRepository) UpdateService(ctx context.Context, service persistence.Service) error {
	service.UpdatedAt = time.Now().UTC()

	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE services
		SET name = ?, description = ?, monthly_price = ?, updated_at = ?
		WHERE id = ?`,
		service.Name,
		service.Description,
		service.MonthlyPrice,
		service.UpdatedAt.Format(time.RFC3339),
		service.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// GetService retrieves a catalog service by ID.
func (r *ServiceRepository) GetService(ctx context.Context, id string) (persistence.Service, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, name, description, monthly_price, created_at, updated_at
		FROM services WHERE id = ?`, id)
	return scanService(row)
}

// ListServices returns all catalog services ordered by name.
func (r *ServiceRepository) ListServices(ctx context.Context) ([]persistence.Service, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, name, description, monthly_price, created_at, updated_at
		FROM services ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var services []persistence.Service
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, service)
	}
	return services, rows.Err()
}

// DeleteService removes a catalog service by ID.
func (r *ServiceRepository) DeleteService(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM services WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// ServiceReferenced reports whether any intervention or recurrence rule still
// points at the service.
func (r *ServiceRepository) ServiceReferenced(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM interventions WHERE service_id = ?)
		     + (SELECT COUNT(*) FROM recurrence_rules WHERE service_id = ?)`,
		id, id,
	).Scan(&count)
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

func scanService(row rowScanner) (persistence.Service, error) {
	var (
		service              persistence.Service
		createdAt, updatedAt string
	)
	err := row.Scan(
		&service.ID,
		&service.Name,
		&service.Description,
		&service.MonthlyPrice,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Service{}, mapError(err)
	}
	if service.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Service{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if service.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Service{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	return service, nil
}
