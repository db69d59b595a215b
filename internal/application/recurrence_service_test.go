package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/service-agenda/internal/calendar"
)

type recurrenceFixture struct {
	service       *RecurrenceService
	rules         *fakeRuleRepo
	interventions *fakeInterventionRepo
}

func newRecurrenceFixture(t *testing.T, now func() time.Time) recurrenceFixture {
	t.Helper()

	clients := newFakeClientRepo()
	services := newFakeServiceRepo()
	employees := newFakeEmployeeRepo()
	interventions := newFakeInterventionRepo()
	rules := newFakeRuleRepo(interventions)

	clientService := NewClientService(clients, sequentialIDs("client"), now, nil)
	catalog := NewCatalogService(services, sequentialIDs("service"), now, nil)
	employeeService := NewEmployeeService(employees, sequentialIDs("employee"), now, nil)

	_, err := clientService.CreateClient(context.Background(), ClientInput{FirstName: "Maria", LastName: "Rossi"})
	require.NoError(t, err)
	_, err = catalog.CreateService(context.Background(), ServiceInput{Name: "Giardinaggio", MonthlyPrice: 150})
	require.NoError(t, err)
	_, err = employeeService.CreateEmployee(context.Background(), EmployeeInput{FirstName: "Anna", LastName: "Verdi"})
	require.NoError(t, err)

	return recurrenceFixture{
		service:       NewRecurrenceService(rules, clients, services, employees, sequentialIDs("rule"), now, nil),
		rules:         rules,
		interventions: interventions,
	}
}

func validRuleInput() RuleInput {
	return RuleInput{
		ClientID:      "client-1",
		ServiceID:     "service-1",
		StartTime:     "09:00",
		DurationHours: 2,
		Active:        true,
		Weekdays:      []int{1, 3},
		EmployeeIDs:   []string{"employee-1"},
	}
}

func TestRecurrenceService_CreateRule(t *testing.T) {
	t.Run("defaults the window to today through december 31", func(t *testing.T) {
		fx := newRecurrenceFixture(t, fixedNow("2026-03-15 10:00"))
		rule, err := fx.service.CreateRule(context.Background(), validRuleInput())
		require.NoError(t, err)
		require.NotNil(t, rule.StartDate)
		require.NotNil(t, rule.EndDate)
		assert.Equal(t, "2026-03-15", *rule.StartDate)
		assert.Equal(t, "2026-12-31", *rule.EndDate)
	})

	t.Run("dedupes and sorts the weekday set", func(t *testing.T) {
		fx := newRecurrenceFixture(t, fixedNow("2026-03-15 10:00"))
		input := validRuleInput()
		input.Weekdays = []int{5, 1, 5, 3}
		rule, err := fx.service.CreateRule(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 3, 5}, rule.Weekdays)
	})

	t.Run("rejects empty and out of range weekdays", func(t *testing.T) {
		fx := newRecurrenceFixture(t, fixedNow("2026-03-15 10:00"))

		input := validRuleInput()
		input.Weekdays = nil
		_, err := fx.service.CreateRule(context.Background(), input)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "weekdays")

		input = validRuleInput()
		input.Weekdays = []int{0, 3}
		_, err = fx.service.CreateRule(context.Background(), input)
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "weekdays")
	})

	t.Run("rejects a window ending before it starts", func(t *testing.T) {
		fx := newRecurrenceFixture(t, fixedNow("2026-03-15 10:00"))
		input := validRuleInput()
		start, end := "2026-06-01", "2026-05-01"
		input.StartDate, input.EndDate = &start, &end
		_, err := fx.service.CreateRule(context.Background(), input)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "end_date")
	})
}

func TestRecurrenceService_SetActive(t *testing.T) {
	fx := newRecurrenceFixture(t, fixedNow("2026-03-15 10:00"))
	rule, err := fx.service.CreateRule(context.Background(), validRuleInput())
	require.NoError(t, err)

	suspended, err := fx.service.SetActive(context.Background(), rule.ID, false)
	require.NoError(t, err)
	assert.False(t, suspended.Active)
	assert.Equal(t, RuleStatusSuspended, suspended.StatusLabel())

	resumed, err := fx.service.SetActive(context.Background(), rule.ID, true)
	require.NoError(t, err)
	assert.Equal(t, RuleStatusActive, resumed.StatusLabel())
}

func TestRecurrenceService_DeleteRule_NullsBackReferences(t *testing.T) {
	fx := newRecurrenceFixture(t, fixedNow("2026-03-15 10:00"))
	rule, err := fx.service.CreateRule(context.Background(), validRuleInput())
	require.NoError(t, err)

	// Materialized intervention pointing back at the rule.
	ruleID := rule.ID
	fx.interventions.interventions["iv-1"] = persistenceIntervention("iv-1", &ruleID)
	fx.interventions.order = append(fx.interventions.order, "iv-1")

	require.NoError(t, fx.service.DeleteRule(context.Background(), rule.ID))

	survivor := fx.interventions.interventions["iv-1"]
	assert.Nil(t, survivor.RuleID)
}

func TestRecurrenceService_ExtendStaleRules(t *testing.T) {
	fx := newRecurrenceFixture(t, fixedNow("2026-01-02 08:00"))

	stale := validRuleInput()
	start, end := "2025-01-01", "2025-12-31"
	stale.StartDate, stale.EndDate = &start, &end
	created, err := fx.service.CreateRule(context.Background(), stale)
	require.NoError(t, err)

	fresh := validRuleInput()
	_, err = fx.service.CreateRule(context.Background(), fresh)
	require.NoError(t, err)

	extended, err := fx.service.ExtendStaleRules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), extended)

	rule, err := fx.service.GetRule(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, rule.EndDate)
	assert.Equal(t, "2026-12-31", *rule.EndDate)

	// Second run finds nothing left to move.
	extended, err = fx.service.ExtendStaleRules(context.Background())
	require.NoError(t, err)
	assert.Zero(t, extended)
}

func TestRecurrenceService_PreviewDates(t *testing.T) {
	fx := newRecurrenceFixture(t, fixedNow("2026-01-01 08:00"))

	input := validRuleInput()
	start, end := "2026-01-05", "2026-01-18"
	input.StartDate, input.EndDate = &start, &end
	input.Weekdays = []int{1, 3, 5}
	rule, err := fx.service.CreateRule(context.Background(), input)
	require.NoError(t, err)

	dates, err := fx.service.PreviewDates(context.Background(), rule.ID,
		calendar.NewDate(2026, time.January, 1), calendar.NewDate(2026, time.January, 31))
	require.NoError(t, err)

	want := []string{"2026-01-05", "2026-01-07", "2026-01-09", "2026-01-12", "2026-01-14", "2026-01-16"}
	require.Len(t, dates, len(want))
	for i, expected := range want {
		assert.Equal(t, expected, dates[i].String())
	}
}
