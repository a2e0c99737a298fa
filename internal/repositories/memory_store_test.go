package repositories

import (
	"context"
	"testing"
	"time"

	"transportdesk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ListNewestFirstAfterDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	var ids []int64
	for i := 0; i < 4; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		r, err := store.Create(ctx, models.TransportRequest{UnitName: "U", Status: models.StatusPending, CreatedAt: at, UpdatedAt: at})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	require.NoError(t, store.Delete(ctx, ids[1], nil))

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{ids[3], ids[2], ids[0]}, []int64{got[0].ID, got[1].ID, got[2].ID})
}

func TestMemoryStore_UpdateStatusConditional(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r, err := store.Create(ctx, models.TransportRequest{Status: models.StatusApproved})
	require.NoError(t, err)

	_, err = store.UpdateStatus(ctx, r.ID, models.AllowedFrom(models.StatusRejected), models.StatusRejected, time.Now())
	assert.ErrorIs(t, err, ErrStatusMismatch)

	_, err = store.UpdateStatus(ctx, 99, models.AllowedFrom(models.StatusRejected), models.StatusRejected, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_DeleteRespectsAllowed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r, err := store.Create(ctx, models.TransportRequest{Status: models.StatusRejected})
	require.NoError(t, err)

	err = store.Delete(ctx, r.ID, []models.Status{models.StatusPending})
	assert.ErrorIs(t, err, ErrStatusMismatch)

	assert.NoError(t, store.Delete(ctx, r.ID, nil))
	_, err = store.GetByID(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
