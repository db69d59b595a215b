package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientService_CreateClient(t *testing.T) {
	repo := newFakeClientRepo()
	service := NewClientService(repo, sequentialIDs("client"), fixedNow("2026-03-01 10:00"), nil)

	t.Run("persists a trimmed client", func(t *testing.T) {
		client, err := service.CreateClient(context.Background(), ClientInput{
			FirstName: "  Maria ",
			LastName:  "Rossi",
			Phone:     "333 1234567",
		})
		require.NoError(t, err)
		assert.Equal(t, "client-1", client.ID)
		assert.Equal(t, "Maria", client.FirstName)

		stored, err := repo.GetClient(context.Background(), client.ID)
		require.NoError(t, err)
		assert.Equal(t, "Maria", stored.FirstName)
	})

	t.Run("accumulates field errors before any mutation", func(t *testing.T) {
		before := len(repo.clients)
		_, err := service.CreateClient(context.Background(), ClientInput{})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "first_name")
		assert.Contains(t, vErr.FieldErrors, "last_name")
		assert.Len(t, repo.clients, before)
	})
}

func TestClientService_UpdateClient(t *testing.T) {
	repo := newFakeClientRepo()
	service := NewClientService(repo, sequentialIDs("client"), fixedNow("2026-03-01 10:00"), nil)

	created, err := service.CreateClient(context.Background(), ClientInput{FirstName: "Maria", LastName: "Rossi"})
	require.NoError(t, err)

	t.Run("updates fields and timestamp", func(t *testing.T) {
		updated, err := service.UpdateClient(context.Background(), created.ID, ClientInput{
			FirstName: "Maria",
			LastName:  "Bianchi",
		})
		require.NoError(t, err)
		assert.Equal(t, "Bianchi", updated.LastName)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	})

	t.Run("unknown id maps to ErrNotFound", func(t *testing.T) {
		_, err := service.UpdateClient(context.Background(), "missing", ClientInput{FirstName: "A", LastName: "B"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestClientService_DeleteClient(t *testing.T) {
	repo := newFakeClientRepo()
	service := NewClientService(repo, sequentialIDs("client"), fixedNow("2026-03-01 10:00"), nil)

	created, err := service.CreateClient(context.Background(), ClientInput{FirstName: "Maria", LastName: "Rossi"})
	require.NoError(t, err)

	t.Run("refuses to delete a referenced client and keeps the row", func(t *testing.T) {
		repo.referenced[created.ID] = true

		err := service.DeleteClient(context.Background(), created.ID)
		assert.ErrorIs(t, err, ErrReferentialIntegrity)

		_, err = repo.GetClient(context.Background(), created.ID)
		assert.NoError(t, err)
	})

	t.Run("deletes an unreferenced client", func(t *testing.T) {
		repo.referenced[created.ID] = false
		require.NoError(t, service.DeleteClient(context.Background(), created.ID))
		_, err := service.GetClient(context.Background(), created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
