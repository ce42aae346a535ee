package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remedyops/billcheck/internal/benchmark"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testResult(precision float64) benchmark.Result {
	return benchmark.Result{
		RunID:              "run-1",
		ConfigurationKey:   "p:m:test",
		Precision:          precision,
		Recall:             0.5,
		F1:                 0.5,
		SavingsCaptureRate: 1.0,
		DomainBreakdown: map[string]benchmark.CategoryMetric{
			"upcoding": {Category: "upcoding", TruePositive: 1, Precision: precision, Recall: 0.5},
		},
	}
}

func TestSaveSnapshot_VersionsAreMonotonic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.SaveSnapshot(ctx, "p:m:test", testResult(0.5))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.True(t, first.IsCurrent)

	second, err := store.SaveSnapshot(ctx, "p:m:test", testResult(0.6))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	// Versions are per configuration key.
	other, err := store.SaveSnapshot(ctx, "p:m:prod", testResult(0.7))
	require.NoError(t, err)
	assert.Equal(t, 1, other.Version)
}

func TestSaveSnapshot_ExactlyOneCurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.SaveSnapshot(ctx, "p:m:test", testResult(float64(i)/10))
		require.NoError(t, err)
	}

	history, err := store.GetHistory(ctx, "p:m:test", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)

	currentCount := 0
	for _, snapshot := range history {
		if snapshot.IsCurrent {
			currentCount++
			assert.Equal(t, 3, snapshot.Version)
		}
	}
	assert.Equal(t, 1, currentCount)
}

func TestCheckout_RoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveSnapshot(ctx, "p:m:test", testResult(0.5))
	require.NoError(t, err)
	_, err = store.SaveSnapshot(ctx, "p:m:test", testResult(0.8))
	require.NoError(t, err)

	// Checkout v1: current metrics are exactly v1's stored values.
	require.NoError(t, store.Checkout(ctx, "p:m:test", 1))
	current, err := store.GetCurrent(ctx, "p:m:test")
	require.NoError(t, err)
	assert.Equal(t, 1, current.Version)
	assert.InDelta(t, 0.5, current.Metrics.Precision, 1e-9)

	// Checkout v2 and back to v1 loses nothing.
	require.NoError(t, store.Checkout(ctx, "p:m:test", 2))
	require.NoError(t, store.Checkout(ctx, "p:m:test", 1))
	current, err = store.GetCurrent(ctx, "p:m:test")
	require.NoError(t, err)
	assert.Equal(t, 1, current.Version)
	assert.InDelta(t, 0.5, current.Metrics.Precision, 1e-9)
}

func TestCheckout_UnknownVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveSnapshot(ctx, "p:m:test", testResult(0.5))
	require.NoError(t, err)

	err = store.Checkout(ctx, "p:m:test", 42)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestGetHistory_NewestFirstAndLimited(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.SaveSnapshot(ctx, "p:m:test", testResult(float64(i)/10))
		require.NoError(t, err)
	}

	history, err := store.GetHistory(ctx, "p:m:test", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 5, history[0].Version)
	assert.Equal(t, 3, history[2].Version)
}

func TestGetHistory_NoSnapshots(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetHistory(context.Background(), "missing", 0)
	assert.ErrorIs(t, err, ErrNoSnapshots)
}

func TestCompare(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveSnapshot(ctx, "p:m:test", testResult(0.5))
	require.NoError(t, err)
	_, err = store.SaveSnapshot(ctx, "p:m:test", testResult(0.6))
	require.NoError(t, err)

	deltas, err := store.Compare(ctx, "p:m:test", 1, 2)
	require.NoError(t, err)
	require.NotEmpty(t, deltas)

	byName := make(map[string]float64, len(deltas))
	for _, delta := range deltas {
		byName[delta.Metric] = delta.Delta
	}
	assert.InDelta(t, 0.1, byName["precision"], 1e-9)
	assert.InDelta(t, 0.0, byName["recall"], 1e-9)

	for _, delta := range deltas {
		if delta.Metric == "precision" {
			assert.InDelta(t, 20.0, delta.PercentChange, 1e-9)
		}
	}
}

func TestCompare_MissingVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveSnapshot(ctx, "p:m:test", testResult(0.5))
	require.NoError(t, err)

	_, err = store.Compare(ctx, "p:m:test", 1, 9)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestGetVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveSnapshot(ctx, "p:m:test", testResult(0.5))
	require.NoError(t, err)

	snapshot, err := store.GetVersion(ctx, "p:m:test", 1)
	require.NoError(t, err)
	assert.Equal(t, "run-1", snapshot.Metrics.RunID)

	_, err = store.GetVersion(ctx, "p:m:test", 2)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestMigrate_Idempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Migrate(context.Background()))
}
