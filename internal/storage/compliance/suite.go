// Package compliance holds the shared test suite every report archive must pass.
package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/awe/internal/domain"
)

// Archive is the contract under test.
type Archive interface {
	Put(ctx context.Context, snapshot *domain.ReportSnapshot) error
	Get(ctx context.Context, id string) (*domain.ReportSnapshot, error)
	List(ctx context.Context) ([]*domain.ReportSnapshot, error)
}

func newSnapshot(generated time.Time) *domain.ReportSnapshot {
	return &domain.ReportSnapshot{
		ID:          uuid.Must(uuid.NewV7()).String(),
		GeneratedAt: generated.UTC(),
		Today:       generated.Format(domain.DateLayout),
		Period:      "Current Month",
		Activity:    "All",
		Stats: domain.TaskStats{
			Total:     3,
			Completed: 1,
			Due:       2,
			PieChart:  map[domain.DerivedStatus]int{domain.DerivedCompleted: 1, domain.DerivedDue: 2},
		},
	}
}

// RunArchiveComplianceTest runs the archive contract against a fresh store
// from setup. teardown runs after each subtest, even on failure.
func RunArchiveComplianceTest(t *testing.T, setup func() (Archive, func())) {
	t.Run("PutAndGet", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		snap := newSnapshot(time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC))
		require.NoError(t, store.Put(ctx, snap))

		got, err := store.Get(ctx, snap.ID)
		require.NoError(t, err)
		assert.Equal(t, snap.ID, got.ID)
		assert.True(t, snap.GeneratedAt.Equal(got.GeneratedAt))
		assert.Equal(t, "2024-03-15", got.Today)
		assert.Equal(t, snap.Stats.Total, got.Stats.Total)
		assert.Equal(t, 2, got.Stats.PieChart[domain.DerivedDue])
	})

	t.Run("PutRejectsDuplicateID", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		snap := newSnapshot(time.Now().UTC())
		require.NoError(t, store.Put(ctx, snap))

		changed := *snap
		changed.Period = "All"
		err := store.Put(ctx, &changed)
		require.ErrorIs(t, err, domain.ErrSnapshotExists)

		got, err := store.Get(ctx, snap.ID)
		require.NoError(t, err)
		assert.Equal(t, "Current Month", got.Period, "original snapshot is kept")
	})

	t.Run("List", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()

		first := newSnapshot(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		second := newSnapshot(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, store.Put(ctx, first))
		require.NoError(t, store.Put(ctx, second))

		list, err := store.List(ctx)
		require.NoError(t, err)

		ids := make(map[string]bool)
		for _, s := range list {
			ids[s.ID] = true
		}
		assert.True(t, ids[first.ID])
		assert.True(t, ids[second.ID])
	})

	t.Run("GetMissing", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()

		_, err := store.Get(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})
}
