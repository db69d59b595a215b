package persistence

import "context"

// ClientRepository exposes CRUD operations for clients.
type ClientRepository interface {
	CreateClient(ctx context.Context, client Client) error
	UpdateClient(ctx context.Context, client Client) error
	GetClient(ctx context.Context, id string) (Client, error)
	ListClients(ctx context.Context) ([]Client, error)
	DeleteClient(ctx context.Context, id string) error
	// ClientReferenced reports whether any intervention or recurrence rule
	// still points at the client.
	ClientReferenced(ctx context.Context, id string) (bool, error)
}

// EmployeeRepository exposes CRUD operations for employees.
type EmployeeRepository interface {
	CreateEmployee(ctx context.Context, employee Employee) error
	UpdateEmployee(ctx context.Context, employee Employee) error
	GetEmployee(ctx context.Context, id string) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
	EmployeeReferenced(ctx context.Context, id string) (bool, error)
}

// ServiceRepository exposes CRUD operations for catalog services.
type ServiceRepository interface {
	CreateService(ctx context.Context, service Service) error
	UpdateService(ctx context.Context, service Service) error
	GetService(ctx context.Context, id string) (Service, error)
	ListServices(ctx context.Context) ([]Service, error)
	DeleteService(ctx context.Context, id string) error
	ServiceReferenced(ctx context.Context, id string) (bool, error)
}

// InterventionRepository stores one-off interventions and their employee
// assignment sets.
type InterventionRepository interface {
	CreateIntervention(ctx context.Context, intervention Intervention) error
	UpdateIntervention(ctx context.Context, intervention Intervention) error
	GetIntervention(ctx context.Context, id string) (Intervention, error)
	ListInterventions(ctx context.Context) ([]Intervention, error)
	// ListInterventionsInMonth returns interventions whose stored date falls
	// inside the given month, ordered by date then start time.
	ListInterventionsInMonth(ctx context.Context, year int, month int) ([]Intervention, error)
	DeleteIntervention(ctx context.Context, id string) error
}

// RecurrenceRuleRepository stores recurrence rules with their weekday and
// employee assignment sets.
type RecurrenceRuleRepository interface {
	CreateRule(ctx context.Context, rule RecurrenceRule) error
	UpdateRule(ctx context.Context, rule RecurrenceRule) error
	GetRule(ctx context.Context, id string) (RecurrenceRule, error)
	ListRules(ctx context.Context) ([]RecurrenceRule, error)
	ListActiveRules(ctx context.Context) ([]RecurrenceRule, error)
	// DeleteRule removes the rule and nulls the back-reference of any
	// intervention materialized from it, in one transaction.
	DeleteRule(ctx context.Context, id string) error
	// ExtendStaleRules moves the end date of active rules whose end date
	// precedes today forward to endOfYear, returning the number updated.
	ExtendStaleRules(ctx context.Context, today string, endOfYear string) (int64, error)
}
