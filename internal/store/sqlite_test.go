package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbansignals/floodwatch/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, 2019)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 2019, run.Year)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning))

	result := &model.RunResult{
		Year:            2019,
		TotalComplaints: 100000,
		FloodComplaints: 25000,
		Joined:          24000,
		Unassigned:      1000,
		Tracts:          300,
	}
	require.NoError(t, s.UpdateRunResult(ctx, run.ID, result))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, int64(25000), got.Result.FloodComplaints)
}

func TestSQLiteRunNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.UpdateRunStatus(ctx, "nonexistent", model.RunStatusRunning)
	assert.Error(t, err)

	_, err = s.GetRun(ctx, "nonexistent")
	assert.Error(t, err)
}

func TestSQLiteListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r1, err := s.CreateRun(ctx, 2019)
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, 2020)
	require.NoError(t, err)
	require.NoError(t, s.UpdateRunStatus(ctx, r1.ID, model.RunStatusFailed))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	failed, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, r1.ID, failed[0].ID)

	byYear, err := s.ListRuns(ctx, RunFilter{Year: 2020})
	require.NoError(t, err)
	require.Len(t, byYear, 1)
	assert.Equal(t, 2020, byYear[0].Year)
}

func TestSQLitePhases(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, 2019)
	require.NoError(t, err)

	phase, err := s.CreatePhase(ctx, run.ID, "join")
	require.NoError(t, err)
	assert.Equal(t, model.PhaseStatusRunning, phase.Status)

	err = s.CompletePhase(ctx, phase.ID, &model.PhaseResult{
		Name:     "join",
		Status:   model.PhaseStatusComplete,
		Rows:     24000,
		Duration: 1500,
	})
	assert.NoError(t, err)

	err = s.CompletePhase(ctx, "nonexistent", &model.PhaseResult{Status: model.PhaseStatusFailed})
	assert.Error(t, err)
}

func TestSQLiteSummaries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, 2019)
	require.NoError(t, err)

	in := []model.TractSummary{
		{
			GEOID: "36061000100", Name: "Census Tract 1", Borough: "Manhattan",
			Population: 1000, ComplaintCount: 5, Rate: 0.005, RateDefined: true,
			Demo: model.Demographics{MedianIncome: 65000, PctPoverty: 0.12},
		},
		{GEOID: "36047000200", Borough: "Brooklyn", Population: 0, ComplaintCount: 3},
	}
	require.NoError(t, s.SaveSummaries(ctx, run.ID, in))

	out, err := s.GetSummaries(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Ordered by GEOID.
	assert.Equal(t, "36047000200", out[0].GEOID)
	assert.False(t, out[0].RateDefined)

	assert.Equal(t, "36061000100", out[1].GEOID)
	assert.True(t, out[1].RateDefined)
	assert.InDelta(t, 0.005, out[1].Rate, 1e-12)
	assert.InDelta(t, 5.0, out[1].RatePer1000, 1e-9)
	assert.InDelta(t, 65000, out[1].Demo.MedianIncome, 1e-9)
}
