package ports

import (
	"context"
	"time"

	"github.com/avolkov/backsim/internal/domain"
)

// RunRecord is one persisted backtest run.
type RunRecord struct {
	RunID     string
	BatchID   string // shared by all runs of a Monte Carlo batch
	Strategy  string
	Seed      int64
	SeedSet   bool
	CreatedAt time.Time
	Result    domain.BacktestResult
}

// ResultStore persists finished run results.
type ResultStore interface {
	// SaveRun persists one run scorecard.
	SaveRun(ctx context.Context, rec RunRecord) error

	// ListRuns returns runs created inside [from, to], newest first.
	ListRuns(ctx context.Context, from, to time.Time) ([]RunRecord, error)

	// Close closes the underlying database cleanly.
	Close() error
}
