// Package store persists pipeline runs, their phases, and per-tract
// summary rows. Two backends: SQLite for single-machine use and Postgres
// for shared deployments.
package store

import (
	"context"

	"github.com/urbansignals/floodwatch/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Year   int             `json:"year,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the analysis pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, year int) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Phases
	CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error)
	CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error

	// Tract summaries
	SaveSummaries(ctx context.Context, runID string, summaries []model.TractSummary) error
	GetSummaries(ctx context.Context, runID string) ([]model.TractSummary, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
