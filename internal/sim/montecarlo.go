package sim

import (
	"context"
	"log/slog"

	"github.com/avolkov/backsim/internal/domain"
	"github.com/avolkov/backsim/internal/ports"
)

// MonteCarloRun pairs a child result with its zero-based position in
// the batch. With a base seed set the child ran under baseSeed+Run, so
// the mapping holds even when earlier runs failed and were dropped.
type MonteCarloRun struct {
	Run    int
	Result domain.BacktestResult
}

// MonteCarlo runs numRuns independent replays of the same streams,
// each child seeded with baseSeed+i when a base seed is set (nil stays
// nil, meaning non-reproducible children). Every child applies the
// same stream filters. Children run sequentially and share nothing:
// each gets its own engine, stream copies and RNG. A failed run is
// logged and excluded; one failure never aborts the batch, so the
// returned slice may be shorter than numRuns. Results keep run order.
func MonteCarlo(
	ctx context.Context,
	settings Settings,
	emulatorSettings EmulatorSettings,
	filters StreamFilters,
	streams []*domain.TradeStream,
	strategies []func() ports.StrategyAdapter,
	numRuns int,
) []MonteCarloRun {
	slog.Info("starting monte carlo batch", "runs", numRuns, "base_seed", seedLabel(settings.RandomSeed))

	results := make([]MonteCarloRun, 0, numRuns)
	for run := 0; run < numRuns; run++ {
		select {
		case <-ctx.Done():
			slog.Warn("monte carlo batch cancelled", "completed", len(results))
			return results
		default:
		}

		runSettings := settings
		if settings.RandomSeed != nil {
			runSettings = settings.WithSeed(*settings.RandomSeed + int64(run))
		}

		engine := NewEngine(runSettings, emulatorSettings)
		engine.SetFilters(filters)
		for _, stream := range streams {
			engine.AddStream(stream.Clone())
		}
		for _, build := range strategies {
			engine.AddStrategy(build())
		}

		result, err := engine.Run(ctx)
		if err != nil {
			slog.Warn("monte carlo run failed", "run", run+1, "err", err)
			continue
		}

		results = append(results, MonteCarloRun{Run: run, Result: result})
		slog.Info("monte carlo run finished",
			"run", run+1,
			"of", numRuns,
			"pnl", result.TotalPnL,
			"trades", result.TotalTrades,
		)
	}

	slog.Info("monte carlo batch finished", "successful", len(results), "of", numRuns)
	return results
}
