package ports

import "github.com/avolkov/backsim/internal/domain"

// Reporter presents run results to the user.
type Reporter interface {
	// PrintResult renders one run scorecard.
	PrintResult(result domain.BacktestResult)

	// PrintBatch renders a Monte Carlo batch with per-run rows and
	// aggregate statistics.
	PrintBatch(results []domain.BacktestResult)
}
