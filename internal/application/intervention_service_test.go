package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type interventionFixture struct {
	service       *InterventionService
	interventions *fakeInterventionRepo
	clients       *fakeClientRepo
	services      *fakeServiceRepo
	employees     *fakeEmployeeRepo
}

func newInterventionFixture(t *testing.T) interventionFixture {
	t.Helper()

	clients := newFakeClientRepo()
	services := newFakeServiceRepo()
	employees := newFakeEmployeeRepo()
	interventions := newFakeInterventionRepo()

	clientService := NewClientService(clients, sequentialIDs("client"), fixedNow("2026-03-01 10:00"), nil)
	catalog := NewCatalogService(services, sequentialIDs("service"), fixedNow("2026-03-01 10:00"), nil)
	employeeService := NewEmployeeService(employees, sequentialIDs("employee"), fixedNow("2026-03-01 10:00"), nil)

	_, err := clientService.CreateClient(context.Background(), ClientInput{FirstName: "Maria", LastName: "Rossi"})
	require.NoError(t, err)
	_, err = catalog.CreateService(context.Background(), ServiceInput{Name: "Pulizie", MonthlyPrice: 200})
	require.NoError(t, err)
	_, err = employeeService.CreateEmployee(context.Background(), EmployeeInput{FirstName: "Anna", LastName: "Verdi"})
	require.NoError(t, err)

	return interventionFixture{
		service:       NewInterventionService(interventions, clients, services, employees, sequentialIDs("iv"), fixedNow("2026-03-01 10:00"), nil),
		interventions: interventions,
		clients:       clients,
		services:      services,
		employees:     employees,
	}
}

func TestInterventionService_CreateIntervention(t *testing.T) {
	t.Run("defaults the status to Scheduled", func(t *testing.T) {
		fx := newInterventionFixture(t)
		created, err := fx.service.CreateIntervention(context.Background(), InterventionInput{
			ClientID:      "client-1",
			ServiceID:     "service-1",
			Date:          "2026-03-10",
			StartTime:     "09:00",
			DurationHours: 2,
			EmployeeIDs:   []string{"employee-1"},
		})
		require.NoError(t, err)
		assert.Equal(t, StatusScheduled, created.Status)
		assert.Nil(t, created.RuleID)
	})

	t.Run("rejects malformed date, time, duration and status", func(t *testing.T) {
		fx := newInterventionFixture(t)
		_, err := fx.service.CreateIntervention(context.Background(), InterventionInput{
			ClientID:      "client-1",
			ServiceID:     "service-1",
			Date:          "10/03/2026",
			StartTime:     "9 o'clock",
			DurationHours: 0,
			Status:        "Done",
		})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "date")
		assert.Contains(t, vErr.FieldErrors, "start_time")
		assert.Contains(t, vErr.FieldErrors, "duration_hours")
		assert.Contains(t, vErr.FieldErrors, "status")
		assert.Empty(t, fx.interventions.interventions)
	})

	t.Run("rejects references to unknown entities", func(t *testing.T) {
		fx := newInterventionFixture(t)
		_, err := fx.service.CreateIntervention(context.Background(), InterventionInput{
			ClientID:      "ghost",
			ServiceID:     "service-1",
			Date:          "2026-03-10",
			StartTime:     "09:00",
			DurationHours: 1,
			EmployeeIDs:   []string{"nobody"},
		})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "client_id")
		assert.Contains(t, vErr.FieldErrors, "employee_ids")
	})
}

func TestInterventionService_SetStatus(t *testing.T) {
	fx := newInterventionFixture(t)
	created, err := fx.service.CreateIntervention(context.Background(), InterventionInput{
		ClientID:      "client-1",
		ServiceID:     "service-1",
		Date:          "2026-03-10",
		StartTime:     "09:00",
		DurationHours: 1,
	})
	require.NoError(t, err)

	t.Run("moves through the status lifecycle", func(t *testing.T) {
		updated, err := fx.service.SetStatus(context.Background(), created.ID, StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, updated.Status)
	})

	t.Run("rejects unknown statuses", func(t *testing.T) {
		_, err := fx.service.SetStatus(context.Background(), created.ID, "Archived")
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestInterventionService_UpdatePreservesRuleReference(t *testing.T) {
	fx := newInterventionFixture(t)
	created, err := fx.service.CreateIntervention(context.Background(), InterventionInput{
		ClientID:      "client-1",
		ServiceID:     "service-1",
		Date:          "2026-03-10",
		StartTime:     "09:00",
		DurationHours: 1,
	})
	require.NoError(t, err)

	ruleID := "rule-1"
	stored := fx.interventions.interventions[created.ID]
	stored.RuleID = &ruleID
	fx.interventions.interventions[created.ID] = stored

	updated, err := fx.service.UpdateIntervention(context.Background(), created.ID, InterventionInput{
		ClientID:      "client-1",
		ServiceID:     "service-1",
		Date:          "2026-03-11",
		StartTime:     "10:00",
		DurationHours: 1.5,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.RuleID)
	assert.Equal(t, ruleID, *updated.RuleID)
}

func TestInterventionService_DeleteIntervention(t *testing.T) {
	fx := newInterventionFixture(t)
	created, err := fx.service.CreateIntervention(context.Background(), InterventionInput{
		ClientID:      "client-1",
		ServiceID:     "service-1",
		Date:          "2026-03-10",
		StartTime:     "09:00",
		DurationHours: 1,
	})
	require.NoError(t, err)

	require.NoError(t, fx.service.DeleteIntervention(context.Background(), created.ID))
	_, err = fx.service.GetIntervention(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
