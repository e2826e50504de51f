package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/avolkov/backsim/config"
	"github.com/avolkov/backsim/internal/domain"
	"github.com/avolkov/backsim/internal/ports"
	"github.com/avolkov/backsim/internal/sim"
	"github.com/google/uuid"
)

// runMonteCarlo runs the whole batch, prints the dispersion table and
// persists every completed run under one shared batch id.
func runMonteCarlo(
	ctx context.Context,
	cfg *config.Config,
	streams []*domain.TradeStream,
	build func() ports.StrategyAdapter,
	strategyName string,
	numRuns int,
	reporter ports.Reporter,
	store ports.ResultStore,
) {
	runs := sim.MonteCarlo(ctx, cfg.Backtest, cfg.Emulator, cfg.Filters, streams,
		[]func() ports.StrategyAdapter{build}, numRuns)

	results := make([]domain.BacktestResult, 0, len(runs))
	for _, r := range runs {
		results = append(results, r.Result)
	}
	reporter.PrintBatch(results)

	if len(runs) == 0 {
		slog.Warn("monte carlo produced no results, nothing to persist")
		return
	}

	batchID := uuid.NewString()
	for _, r := range runs {
		rec := ports.RunRecord{
			RunID:     uuid.NewString(),
			BatchID:   batchID,
			Strategy:  strategyName,
			CreatedAt: time.Now().UTC(),
			Result:    r.Result,
		}
		if cfg.Backtest.RandomSeed != nil {
			// Run is the child index, not the position in the results
			// slice, so failed runs never shift the stored seeds.
			rec.Seed, rec.SeedSet = *cfg.Backtest.RandomSeed+int64(r.Run), true
		}
		if err := store.SaveRun(ctx, rec); err != nil {
			slog.Warn("failed to persist monte carlo run", "err", err, "run", r.Run+1)
		}
	}

	slog.Info("monte carlo batch persisted", "batch_id", batchID, "runs", len(runs))
}
