package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/common"
	"github.com/Veraticus/partner-directory-sync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "history", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testRun(id string, started time.Time, status model.RunStatus) *model.SyncRun {
	return &model.SyncRun{
		ID:         id,
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Status:     status,
		Policy:     "badge",
		Pages:      3,
		Customers:  600,
		Partners:   42,
		CacheHits:  40,
		Geocoded:   2,
		Skipped:    558,
		SkippedByReason: map[model.SkipReason]int{
			model.SkipIneligible:      550,
			model.SkipMissingLocation: 8,
		},
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	var version int
	require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestRecordRun_RoundTrip(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	started := time.Date(2025, 3, 1, 6, 0, 0, 123456789, time.UTC)
	run := testRun("run-1", started, model.RunSucceeded)

	require.NoError(t, store.RecordRun(ctx, run))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))
	assert.True(t, run.FinishedAt.Equal(got.FinishedAt))
	assert.Equal(t, model.RunSucceeded, got.Status)
	assert.Equal(t, 42, got.Partners)
	assert.Equal(t, 558, got.Skipped)
	assert.Equal(t, run.SkippedByReason, got.SkippedByReason)
	assert.Empty(t, got.Error)
}

func TestRecordRun_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)

	tests := []struct {
		run  *model.SyncRun
		name string
	}{
		{name: "nil run", run: nil},
		{name: "missing id", run: testRun("", now, model.RunSucceeded)},
		{name: "unknown status", run: testRun("r", now, "partial")},
		{
			name: "finished before start",
			run: func() *model.SyncRun {
				r := testRun("r", now, model.RunFailed)
				r.FinishedAt = now.Add(-time.Minute)
				return r
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, store.RecordRun(ctx, tt.run))
		})
	}
}

func TestRecordRun_DuplicateID(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	run := testRun("dup", time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC), model.RunSucceeded)

	require.NoError(t, store.RecordRun(ctx, run))
	assert.Error(t, store.RecordRun(ctx, run))
}

func TestListRuns_NewestFirstWithLimit(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)

	// Sub-second start times must still sort correctly.
	require.NoError(t, store.RecordRun(ctx, testRun("a", base, model.RunSucceeded)))
	require.NoError(t, store.RecordRun(ctx, testRun("b", base.Add(500*time.Millisecond), model.RunFailed)))
	require.NoError(t, store.RecordRun(ctx, testRun("c", base.Add(time.Hour), model.RunSucceeded)))

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	all, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLastSuccessfulRun(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)

	_, err := store.LastSuccessfulRun(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)

	failed := testRun("failed", base.Add(2*time.Hour), model.RunFailed)
	failed.Error = "retries exhausted"
	dry := testRun("dry", base.Add(3*time.Hour), model.RunSucceeded)
	dry.DryRun = true

	require.NoError(t, store.RecordRun(ctx, testRun("ok", base, model.RunSucceeded)))
	require.NoError(t, store.RecordRun(ctx, failed))
	require.NoError(t, store.RecordRun(ctx, dry))

	last, err := store.LastSuccessfulRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", last.ID)
}
