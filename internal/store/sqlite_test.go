package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdata/policy-atlas/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "atlas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLite_RunLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, 2024)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 2024, run.Year)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusAnalyzing))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusAnalyzing, got.Status)
	assert.Nil(t, got.Result)

	result := &model.RunResult{
		Jurisdictions: 51,
		NoIDStates:    15,
		IDReqStates:   36,
		NoIDAvgScore:  1.6,
		IDReqAvgScore: 0.3,
		Figures:       []string{"figures/policy_panels.png"},
	}
	require.NoError(t, s.UpdateRunResult(ctx, run.ID, result))

	got, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 51, got.Result.Jurisdictions)
	assert.InDelta(t, 1.6, got.Result.NoIDAvgScore, 1e-9)
}

func TestSQLite_FailRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, 2020)
	require.NoError(t, err)

	require.NoError(t, s.FailRun(ctx, run.ID, "boundary download failed"))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "boundary download failed", got.Result.Error)
}

func TestSQLite_RunNotFound(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	err := s.UpdateRunStatus(ctx, "missing", model.RunStatusComplete)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = s.GetRun(ctx, "missing")
	require.Error(t, err)
}

func TestSQLite_ListRuns(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	a, err := s.CreateRun(ctx, 2020)
	require.NoError(t, err)
	b, err := s.CreateRun(ctx, 2024)
	require.NoError(t, err)
	require.NoError(t, s.UpdateRunStatus(ctx, b.ID, model.RunStatusComplete))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byYear, err := s.ListRuns(ctx, RunFilter{Year: 2020})
	require.NoError(t, err)
	require.Len(t, byYear, 1)
	assert.Equal(t, a.ID, byYear[0].ID)

	byStatus, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, b.ID, byStatus[0].ID)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_Artifacts(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, 2024)
	require.NoError(t, err)

	saved, err := s.AddArtifact(ctx, model.Artifact{
		RunID: run.ID,
		Name:  "policy_panels",
		Path:  "figures/policy_panels.png",
		Kind:  "map",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	_, err = s.AddArtifact(ctx, model.Artifact{
		RunID: run.ID,
		Name:  "key_findings",
		Path:  "figures/key_findings.txt",
		Kind:  "narrative",
	})
	require.NoError(t, err)

	artifacts, err := s.ListArtifacts(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, "policy_panels", artifacts[0].Name)
}

func TestSQLite_BenefitStats(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, 2024)
	require.NoError(t, err)

	stats := []model.BenefitStat{
		{RunID: run.ID, Benefit: "food", NoIDPct: 40, IDReqPct: 5.6, OddsRatio: 12.7, PValue: 0.004},
		{RunID: run.ID, Benefit: "eitc", NoIDPct: 53.3, IDReqPct: 8.3, OddsRatio: 11.2, PValue: 0.001},
	}
	require.NoError(t, s.SaveBenefitStats(ctx, run.ID, stats))

	got, err := s.ListBenefitStats(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Ordered by benefit name.
	assert.Equal(t, "eitc", got[0].Benefit)
	assert.InDelta(t, 11.2, got[0].OddsRatio, 1e-9)

	// Saving again replaces rather than duplicating.
	stats[0].PValue = 0.005
	require.NoError(t, s.SaveBenefitStats(ctx, run.ID, stats))

	got, err = s.ListBenefitStats(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 0.005, got[1].PValue, 1e-9)
}

func TestSQLite_TrendTests(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, 2024)
	require.NoError(t, err)

	tests := []model.TrendTest{
		{RunID: run.ID, Benefit: "any_health", Slope: 0.92, PTrend: 0.0009},
		{RunID: run.ID, Benefit: "food", Slope: 0.61, PTrend: 0.02},
	}
	require.NoError(t, s.SaveTrendTests(ctx, run.ID, tests))

	got, err := s.ListTrendTests(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "any_health", got[0].Benefit)
	assert.InDelta(t, 0.92, got[0].Slope, 1e-9)
}
