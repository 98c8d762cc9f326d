package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelbench/modelbench/bench"
	"github.com/modelbench/modelbench/internal/audit"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRun(runID, userID string, createdAt time.Time) *bench.BenchmarkRun {
	return &bench.BenchmarkRun{
		RunID:       runID,
		UserID:      userID,
		ProblemType: bench.Classification,
		CreatedAt:   createdAt,
		Spec: bench.ProblemSpec{
			TargetColumn:     "label",
			PredictorColumns: []string{"x"},
			TestFraction:     0.2,
		},
		Results: []bench.ModelResult{
			{ModelName: "m1", Status: bench.StatusSuccess, Metrics: map[string]float64{bench.MetricF1: 0.9}},
			{ModelName: "m2", Status: bench.StatusFailed, ErrorMessage: "boom"},
		},
		SuccessfulCount: 1,
		FailedCount:     1,
		BestModelName:   "m1",
		ClassLabels:     []string{"no", "yes"},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := sampleRun("run-1", "alice", time.Now().UTC())
	require.NoError(t, store.SaveRun(ctx, run))
	assert.NotNil(t, run.PersistedAt)

	loaded, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.RunID, loaded.RunID)
	assert.Equal(t, run.UserID, loaded.UserID)
	assert.Equal(t, run.BestModelName, loaded.BestModelName)
	require.Len(t, loaded.Results, 2)
	assert.Equal(t, 0.9, loaded.Results[0].Metrics[bench.MetricF1])
	assert.Equal(t, "boom", loaded.Results[1].ErrorMessage)
	assert.Equal(t, run.ClassLabels, loaded.ClassLabels)
}

func TestGetRunNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetRun(context.Background(), "missing")
	assert.Error(t, err)
}

func TestSaveRunDuplicateID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	run := sampleRun("run-1", "alice", time.Now().UTC())
	require.NoError(t, store.SaveRun(ctx, run))
	assert.Error(t, store.SaveRun(ctx, sampleRun("run-1", "bob", time.Now().UTC())))
}

func TestLastRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveRun(ctx, sampleRun("old", "alice", base)))
	require.NoError(t, store.SaveRun(ctx, sampleRun("new", "alice", base.Add(time.Hour))))
	require.NoError(t, store.SaveRun(ctx, sampleRun("other", "bob", base.Add(30*time.Minute))))

	last, err := store.LastRun(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new", last.RunID)

	anyLast, err := store.LastRun(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "new", anyLast.RunID)
}

func TestListRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3"} {
		user := "alice"
		if id == "r3" {
			user = "bob"
		}
		require.NoError(t, store.SaveRun(ctx, sampleRun(id, user, base.Add(time.Duration(i)*time.Hour))))
	}

	all, err := store.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r3", all[0].RunID, "newest first")

	alice, err := store.ListRuns(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	limited, err := store.ListRuns(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSaveAndListSelections(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	run := sampleRun("run-1", "alice", time.Now().UTC())
	require.NoError(t, store.SaveRun(ctx, run))

	sel := &bench.Selection{
		SelectionID:   "sel-1",
		RunID:         "run-1",
		ModelName:     "m1",
		Criterion:     bench.MetricF1,
		Justification: "best f1",
		SelectedAt:    time.Now().UTC(),
		SelectedBy:    "alice",
	}
	require.NoError(t, store.SaveSelection(ctx, sel))

	sels, err := store.ListSelections(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, sels, 1)
	assert.Equal(t, "m1", sels[0].ModelName)
	assert.Equal(t, "best f1", sels[0].Justification)
}

func TestAuditSink(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sink := store.AuditSink()
	err := sink.Record(ctx, audit.Event{
		Actor:    "alice",
		Action:   audit.ActionBenchmarkCompleted,
		Entity:   "run",
		EntityID: "run-1",
		Detail:   "5 succeeded, 1 failed",
		At:       time.Now().UTC(),
	})
	require.NoError(t, err)

	var count int
	row := store.db.QueryRow(`SELECT COUNT(*) FROM audit_log WHERE actor = ?`, "alice")
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 1, count)
}
