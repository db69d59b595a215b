package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/service-agenda/internal/persistence"
)

// ServiceRepository captures the persistence operations needed by the service.
type ServiceRepository interface {
	CreateService(ctx context.Context, service persistence.Service) error
	UpdateService(ctx context.Context, service persistence.Service) error
	GetService(ctx context.Context, id string) (persistence.Service, error)
	ListServices(ctx context.Context) ([]persistence.Service, error)
	DeleteService(ctx context.Context, id string) error
	ServiceReferenced(ctx context.Context, id string) (bool, error)
}

// CatalogService orchestrates validation and persistence for the service
// catalog.
type CatalogService struct {
	services    ServiceRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCatalogService wires dependencies for catalog operations.
func NewCatalogService(services ServiceRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CatalogService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CatalogService{services: services, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *CatalogService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CatalogService", operation, attrs...)
}

// CreateService validates input and persists a new catalog entry.
func (s *CatalogService) CreateService(ctx context.Context, input ServiceInput) (service Service, err error) {
	if s == nil {
		err = fmt.Errorf("CatalogService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateService")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create service", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("service_id", service.ID).InfoContext(ctx, "service created")
	}()

	vErr := &ValidationError{}
	validateServiceInput(input, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	service = Service{
		ID:           s.idGenerator(),
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		MonthlyPrice: input.MonthlyPrice,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.services.CreateService(ctx, toPersistenceService(service)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// UpdateService validates input and updates an existing catalog entry.
func (s *CatalogService) UpdateService(ctx context.Context, id string, input ServiceInput) (service Service, err error) {
	if s == nil {
		err = fmt.Errorf("CatalogService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateService", "service_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update service", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "service updated")
	}()

	existing, err := s.services.GetService(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	vErr := &ValidationError{}
	validateServiceInput(input, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	service = toApplicationService(existing)
	service.Name = strings.TrimSpace(input.Name)
	service.Description = strings.TrimSpace(input.Description)
	service.MonthlyPrice = input.MonthlyPrice
	service.UpdatedAt = s.now()

	if err = s.services.UpdateService(ctx, toPersistenceService(service)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// GetService retrieves a catalog entry by ID.
func (s *CatalogService) GetService(ctx context.Context, id string) (Service, error) {
	if s == nil {
		return Service{}, fmt.Errorf("CatalogService is nil")
	}
	stored, err := s.services.GetService(ctx, id)
	if err != nil {
		return Service{}, mapRepoError(err)
	}
	return toApplicationService(stored), nil
}

// ListServices returns all catalog entries in the repository's display order.
func (s *CatalogService) ListServices(ctx context.Context) ([]Service, error) {
	if s == nil {
		return nil, fmt.Errorf("CatalogService is nil")
	}
	stored, err := s.services.ListServices(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	services := make([]Service, 0, len(stored))
	for _, model := range stored {
		services = append(services, toApplicationService(model))
	}
	return services, nil
}

// DeleteService removes a catalog entry unless an intervention or rule still
// references it.
func (s *CatalogService) DeleteService(ctx context.Context, id string) (err error) {
	if s == nil {
		return fmt.Errorf("CatalogService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteService", "service_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete service", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "service deleted")
	}()

	referenced, err := s.services.ServiceReferenced(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if referenced {
		err = ErrReferentialIntegrity
		return
	}

	if err = s.services.DeleteService(ctx, id); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

func validateServiceInput(input ServiceInput, vErr *ValidationError) {
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.MonthlyPrice < 0 {
		vErr.add("monthly_price", "monthly price must not be negative")
	}
}

func toPersistenceService(service Service) persistence.Service {
	return persistence.Service{
		ID:           service.ID,
		Name:         service.Name,
		Description:  service.Description,
		MonthlyPrice: service.MonthlyPrice,
		CreatedAt:    service.CreatedAt,
		UpdatedAt:    service.UpdatedAt,
	}
}

func toApplicationService(model persistence.Service) Service {
	return Service{
		ID:           model.ID,
		Name:         model.Name,
		Description:  model.Description,
		MonthlyPrice: model.MonthlyPrice,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}
