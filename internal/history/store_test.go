package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/tracematrix/internal/correlate"
	"github.com/harrison/tracematrix/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name   string
		dbPath string
	}{
		{name: "creates database successfully", dbPath: filepath.Join(t.TempDir(), "test.db")},
		{name: "handles in-memory database", dbPath: ":memory:"},
		{name: "creates parent directories if needed", dbPath: filepath.Join(t.TempDir(), "nested", "dir", "test.db")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.dbPath)
			require.NoError(t, err)
			defer store.Close()

			version, err := store.GetLatestVersion()
			require.NoError(t, err)
			assert.Equal(t, len(migrations), version)
			assert.Equal(t, tt.dbPath, store.Path())
		})
	}
}

func TestNewStoreReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.RecordRun(context.Background(), &Run{State: "ENDED_SUCCESS"}))
	require.NoError(t, store.Close())

	store, err = NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.GetRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecordRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	run := &Run{
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
		Catalog:   "requirements.yaml",
		State:     "ENDED_SUCCESS",
		Summary:   correlate.Summary{Requirements: 2, Covered: 1, Uncovered: 1, Tests: 3, Anomalies: 1},
		Statuses: []RequirementStatus{
			{RequirementID: "R2", Status: "uncovered"},
			{RequirementID: "R1", Status: "covered", TestCount: 3},
		},
	}
	require.NoError(t, store.RecordRun(ctx, run))

	_, err := uuid.Parse(run.ID)
	require.NoError(t, err, "run id should be a UUID")

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, started, got.StartedAt)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, "requirements.yaml", got.Catalog)
	assert.Equal(t, run.Summary, got.Summary)
	assert.Equal(t, []RequirementStatus{
		{RequirementID: "R1", Status: "covered", TestCount: 3},
		{RequirementID: "R2", Status: "uncovered"},
	}, got.Statuses)
}

func TestRecordRunDuplicateID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := &Run{ID: "fixed", State: "ENDED_SUCCESS"}
	require.NoError(t, store.RecordRun(ctx, run))
	err := store.RecordRun(ctx, &Run{ID: "fixed", State: "ENDED_FAILURE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert run")
}

func TestGetRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordRun(ctx, &Run{
			ID:        string(rune('a' + i)),
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			State:     "ENDED_SUCCESS",
		}))
	}

	runs, err := store.GetRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.Empty(t, runs[0].Statuses, "GetRuns does not load statuses")

	runs, err = store.GetRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestGetRunNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetRun(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestGetRequirementStatusesEmpty(t *testing.T) {
	store := newTestStore(t)
	statuses, err := store.GetRequirementStatuses(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, statuses)
	assert.Empty(t, statuses)
}

func TestNewRun(t *testing.T) {
	reqs := []models.Requirement{{ID: "R1"}, {ID: "R2"}, {ID: "R3"}}
	cases := []models.TestCase{&models.JavaTestCase{TestCaseBase: models.TestCaseBase{
		SourceKind: models.SourceJava, ID: "TC-1", Covers: []string{"R1"}, File: "A.java", Line: 3,
	}}}
	lookup := correlate.MapLookup{"R2": {Text: "manual"}}

	result := correlate.Correlate(reqs, cases, lookup)
	started := time.Now()
	run := NewRun(result, "reqs.yaml", "ENDED_SUCCESS", started, time.Second)

	assert.Equal(t, result.Summary(), run.Summary)
	assert.Equal(t, []RequirementStatus{
		{RequirementID: "R1", Status: "covered", TestCount: 1},
		{RequirementID: "R2", Status: "justified", Justification: "manual"},
		{RequirementID: "R3", Status: "uncovered"},
	}, run.Statuses)

	failed := NewRun(nil, "reqs.yaml", "ENDED_FAILURE", started, 0)
	assert.Empty(t, failed.Statuses)
	assert.Equal(t, correlate.Summary{}, failed.Summary)
}
