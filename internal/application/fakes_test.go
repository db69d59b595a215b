package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/service-agenda/internal/persistence"
)

// In-memory repositories for service tests. They honor the same sentinel
// errors as the SQLite implementations.

type fakeClientRepo struct {
	clients    map[string]persistence.Client
	referenced map[string]bool
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: map[string]persistence.Client{}, referenced: map[string]bool{}}
}

func (r *fakeClientRepo) CreateClient(_ context.Context, client persistence.Client) error {
	if _, ok := r.clients[client.ID]; ok {
		return persistence.ErrDuplicate
	}
	r.clients[client.ID] = client
	return nil
}

func (r *fakeClientRepo) UpdateClient(_ context.Context, client persistence.Client) error {
	if _, ok := r.clients[client.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.clients[client.ID] = client
	return nil
}

func (r *fakeClientRepo) GetClient(_ context.Context, id string) (persistence.Client, error) {
	client, ok := r.clients[id]
	if !ok {
		return persistence.Client{}, persistence.ErrNotFound
	}
	return client, nil
}

func (r *fakeClientRepo) ListClients(_ context.Context) ([]persistence.Client, error) {
	out := make([]persistence.Client, 0, len(r.clients))
	for _, client := range r.clients {
		out = append(out, client)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeClientRepo) DeleteClient(_ context.Context, id string) error {
	if _, ok := r.clients[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.clients, id)
	return nil
}

func (r *fakeClientRepo) ClientReferenced(_ context.Context, id string) (bool, error) {
	return r.referenced[id], nil
}

type fakeEmployeeRepo struct {
	employees  map[string]persistence.Employee
	referenced map[string]bool
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{employees: map[string]persistence.Employee{}, referenced: map[string]bool{}}
}

func (r *fakeEmployeeRepo) CreateEmployee(_ context.Context, employee persistence.Employee) error {
	if _, ok := r.employees[employee.ID]; ok {
		return persistence.ErrDuplicate
	}
	r.employees[employee.ID] = employee
	return nil
}

func (r *fakeEmployeeRepo) UpdateEmployee(_ context.Context, employee persistence.Employee) error {
	if _, ok := r.employees[employee.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.employees[employee.ID] = employee
	return nil
}

func (r *fakeEmployeeRepo) GetEmployee(_ context.Context, id string) (persistence.Employee, error) {
	employee, ok := r.employees[id]
	if !ok {
		return persistence.Employee{}, persistence.ErrNotFound
	}
	return employee, nil
}

func (r *fakeEmployeeRepo) ListEmployees(_ context.Context) ([]persistence.Employee, error) {
	out := make([]persistence.Employee, 0, len(r.employees))
	for _, employee := range r.employees {
		out = append(out, employee)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeEmployeeRepo) DeleteEmployee(_ context.Context, id string) error {
	if _, ok := r.employees[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.employees, id)
	return nil
}

func (r *fakeEmployeeRepo) EmployeeReferenced(_ context.Context, id string) (bool, error) {
	return r.referenced[id], nil
}

type fakeServiceRepo struct {
	services   map[string]persistence.Service
	referenced map[string]bool
}

func newFakeServiceRepo() *fakeServiceRepo {
	return &fakeServiceRepo{services: map[string]persistence.Service{}, referenced: map[string]bool{}}
}

func (r *fakeServiceRepo) CreateService(_ context.Context, service persistence.Service) error {
	if _, ok := r.services[service.ID]; ok {
		return persistence.ErrDuplicate
	}
	r.services[service.ID] = service
	return nil
}

func (r *fakeServiceRepo) UpdateService(_ context.Context, service persistence.Service) error {
	if _, ok := r.services[service.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.services[service.ID] = service
	return nil
}

func (r *fakeServiceRepo) GetService(_ context.Context, id string) (persistence.Service, error) {
	service, ok := r.services[id]
	if !ok {
		return persistence.Service{}, persistence.ErrNotFound
	}
	return service, nil
}

func (r *fakeServiceRepo) ListServices(_ context.Context) ([]persistence.Service, error) {
	out := make([]persistence.Service, 0, len(r.services))
	for _, service := range r.services {
		out = append(out, service)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeServiceRepo) DeleteService(_ context.Context, id string) error {
	if _, ok := r.services[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.services, id)
	return nil
}

func (r *fakeServiceRepo) ServiceReferenced(_ context.Context, id string) (bool, error) {
	return r.referenced[id], nil
}

type fakeInterventionRepo struct {
	interventions map[string]persistence.Intervention
	order         []string
}

func newFakeInterventionRepo() *fakeInterventionRepo {
	return &fakeInterventionRepo{interventions: map[string]persistence.Intervention{}}
}

func (r *fakeInterventionRepo) CreateIntervention(_ context.Context, intervention persistence.Intervention) error {
	if _, ok := r.interventions[intervention.ID]; ok {
		return persistence.ErrDuplicate
	}
	r.interventions[intervention.ID] = intervention
	r.order = append(r.order, intervention.ID)
	return nil
}

func (r *fakeInterventionRepo) UpdateIntervention(_ context.Context, intervention persistence.Intervention) error {
	if _, ok := r.interventions[intervention.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.interventions[intervention.ID] = intervention
	return nil
}

func (r *fakeInterventionRepo) GetIntervention(_ context.Context, id string) (persistence.Intervention, error) {
	intervention, ok := r.interventions[id]
	if !ok {
		return persistence.Intervention{}, persistence.ErrNotFound
	}
	return intervention, nil
}

func (r *fakeInterventionRepo) ListInterventions(_ context.Context) ([]persistence.Intervention, error) {
	out := make([]persistence.Intervention, 0, len(r.order))
	for _, id := range r.order {
		if intervention, ok := r.interventions[id]; ok {
			out = append(out, intervention)
		}
	}
	return out, nil
}

func (r *fakeInterventionRepo) ListInterventionsInMonth(ctx context.Context, year int, month int) ([]persistence.Intervention, error) {
	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	all, _ := r.ListInterventions(ctx)
	out := make([]persistence.Intervention, 0, len(all))
	for _, intervention := range all {
		if len(intervention.Date) >= len(prefix) && intervention.Date[:len(prefix)] == prefix {
			out = append(out, intervention)
		}
	}
	return out, nil
}

func (r *fakeInterventionRepo) DeleteIntervention(_ context.Context, id string) error {
	if _, ok := r.interventions[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.interventions, id)
	return nil
}

type fakeRuleRepo struct {
	rules         map[string]persistence.RecurrenceRule
	order         []string
	interventions *fakeInterventionRepo
}

func newFakeRuleRepo(interventions *fakeInterventionRepo) *fakeRuleRepo {
	return &fakeRuleRepo{rules: map[string]persistence.RecurrenceRule{}, interventions: interventions}
}

func (r *fakeRuleRepo) CreateRule(_ context.Context, rule persistence.RecurrenceRule) error {
	if _, ok := r.rules[rule.ID]; ok {
		return persistence.ErrDuplicate
	}
	r.rules[rule.ID] = rule
	r.order = append(r.order, rule.ID)
	return nil
}

func (r *fakeRuleRepo) UpdateRule(_ context.Context, rule persistence.RecurrenceRule) error {
	if _, ok := r.rules[rule.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.rules[rule.ID] = rule
	return nil
}

func (r *fakeRuleRepo) GetRule(_ context.Context, id string) (persistence.RecurrenceRule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return persistence.RecurrenceRule{}, persistence.ErrNotFound
	}
	return rule, nil
}

func (r *fakeRuleRepo) ListRules(_ context.Context) ([]persistence.RecurrenceRule, error) {
	out := make([]persistence.RecurrenceRule, 0, len(r.order))
	for _, id := range r.order {
		if rule, ok := r.rules[id]; ok {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *fakeRuleRepo) ListActiveRules(ctx context.Context) ([]persistence.RecurrenceRule, error) {
	all, _ := r.ListRules(ctx)
	out := make([]persistence.RecurrenceRule, 0, len(all))
	for _, rule := range all {
		if rule.Active {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *fakeRuleRepo) DeleteRule(_ context.Context, id string) error {
	if _, ok := r.rules[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.rules, id)
	if r.interventions != nil {
		for key, intervention := range r.interventions.interventions {
			if intervention.RuleID != nil && *intervention.RuleID == id {
				intervention.RuleID = nil
				r.interventions.interventions[key] = intervention
			}
		}
	}
	return nil
}

func (r *fakeRuleRepo) ExtendStaleRules(_ context.Context, today string, endOfYear string) (int64, error) {
	var count int64
	for id, rule := range r.rules {
		if !rule.Active || rule.EndDate == nil {
			continue
		}
		if *rule.EndDate < today {
			end := endOfYear
			rule.EndDate = &end
			r.rules[id] = rule
			count++
		}
	}
	return count, nil
}

func persistenceIntervention(id string, ruleID *string) persistence.Intervention {
	return persistence.Intervention{
		ID:            id,
		ClientID:      "client-1",
		ServiceID:     "service-1",
		Date:          "2026-03-16",
		StartTime:     "09:00",
		DurationHours: 2,
		Status:        "Scheduled",
		RuleID:        ruleID,
	}
}

// Deterministic clocks and ID sequences shared by the service tests.

func fixedNow(value string) func() time.Time {
	t, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
