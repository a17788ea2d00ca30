// Package store persists analysis runs, their statistics, and the
// artifacts they produce, on SQLite by default or PostgreSQL when
// configured.
package store

import (
	"context"

	"github.com/civicdata/policy-atlas/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Year   int             `json:"year,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for analysis runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, year int) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, errMsg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Artifacts
	AddArtifact(ctx context.Context, artifact model.Artifact) (*model.Artifact, error)
	ListArtifacts(ctx context.Context, runID string) ([]model.Artifact, error)

	// Statistics
	SaveBenefitStats(ctx context.Context, runID string, stats []model.BenefitStat) error
	ListBenefitStats(ctx context.Context, runID string) ([]model.BenefitStat, error)
	SaveTrendTests(ctx context.Context, runID string, tests []model.TrendTest) error
	ListTrendTests(ctx context.Context, runID string) ([]model.TrendTest, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
