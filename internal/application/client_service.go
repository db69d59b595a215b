package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/service-agenda/internal/persistence"
)

// ClientRepository captures the persistence operations needed by the service.
type ClientRepository interface {
	CreateClient(ctx context.Context, client persistence.Client) error
	UpdateClient(ctx context.Context, client persistence.Client) error
	GetClient(ctx context.Context, id string) (persistence.Client, error)
	ListClients(ctx context.Context) ([]persistence.Client, error)
	DeleteClient(ctx context.Context, id string) error
	ClientReferenced(ctx context.Context, id string) (bool, error)
}

// ClientService orchestrates validation and persistence for client records.
type ClientService struct {
	clients     ClientRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewClientService wires dependencies for client operations.
func NewClientService(clients ClientRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ClientService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ClientService{clients: clients, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *ClientService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ClientService", operation, attrs...)
}

// CreateClient validates input and persists a new client.
func (s *ClientService) CreateClient(ctx context.Context, input ClientInput) (client Client, err error) {
	if s == nil {
		err = fmt.Errorf("ClientService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateClient")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create client", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("client_id", client.ID).InfoContext(ctx, "client created")
	}()

	vErr := &ValidationError{}
	validateClientInput(input, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	client = Client{
		ID:        s.idGenerator(),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Phone:     strings.TrimSpace(input.Phone),
		Address:   strings.TrimSpace(input.Address),
		Email:     strings.TrimSpace(input.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = s.clients.CreateClient(ctx, toPersistenceClient(client)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// UpdateClient validates input and updates an existing client.
func (s *ClientService) UpdateClient(ctx context.Context, id string, input ClientInput) (client Client, err error) {
	if s == nil {
		err = fmt.Errorf("ClientService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateClient", "client_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update client", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "client updated")
	}()

	existing, err := s.clients.GetClient(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	vErr := &ValidationError{}
	validateClientInput(input, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	client = toApplicationClient(existing)
	client.FirstName = strings.TrimSpace(input.FirstName)
	client.LastName = strings.TrimSpace(input.LastName)
	client.Phone = strings.TrimSpace(input.Phone)
	client.Address = strings.TrimSpace(input.Address)
	client.Email = strings.TrimSpace(input.Email)
	client.UpdatedAt = s.now()

	if err = s.clients.UpdateClient(ctx, toPersistenceClient(client)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// GetClient retrieves a client by ID.
func (s *ClientService) GetClient(ctx context.Context, id string) (Client, error) {
	if s == nil {
		return Client{}, fmt.Errorf("ClientService is nil")
	}
	stored, err := s.clients.GetClient(ctx, id)
	if err != nil {
		return Client{}, mapRepoError(err)
	}
	return toApplicationClient(stored), nil
}

// ListClients returns all clients in the repository's display order.
func (s *ClientService) ListClients(ctx context.Context) ([]Client, error) {
	if s == nil {
		return nil, fmt.Errorf("ClientService is nil")
	}
	stored, err := s.clients.ListClients(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	clients := make([]Client, 0, len(stored))
	for _, model := range stored {
		clients = append(clients, toApplicationClient(model))
	}
	return clients, nil
}

// DeleteClient removes a client unless an intervention or rule still
// references it.
func (s *ClientService) DeleteClient(ctx context.Context, id string) (err error) {
	if s == nil {
		return fmt.Errorf("ClientService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteClient", "client_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete client", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "client deleted")
	}()

	referenced, err := s.clients.ClientReferenced(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if referenced {
		err = ErrReferentialIntegrity
		return
	}

	if err = s.clients.DeleteClient(ctx, id); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

func validateClientInput(input ClientInput, vErr *ValidationError) {
	if strings.TrimSpace(input.FirstName) == "" {
		vErr.add("first_name", "first name is required")
	}
	if strings.TrimSpace(input.LastName) == "" {
		vErr.add("last_name", "last name is required")
	}
}

func toPersistenceClient(client Client) persistence.Client {
	return persistence.Client{
		ID:        client.ID,
		FirstName: client.FirstName,
		LastName:  client.LastName,
		Phone:     client.Phone,
		Address:   client.Address,
		Email:     client.Email,
		CreatedAt: client.CreatedAt,
		UpdatedAt: client.UpdatedAt,
	}
}

func toApplicationClient(model persistence.Client) Client {
	return Client{
		ID:        model.ID,
		FirstName: model.FirstName,
		LastName:  model.LastName,
		Phone:     model.Phone,
		Address:   model.Address,
		Email:     model.Email,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// mapRepoError translates persistence sentinels into application errors.
// Foreign key violations surface as referential integrity refusals: the FK
// constraints are the backstop behind the explicit reference checks.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrReferentialIntegrity
	}
	return err
}
