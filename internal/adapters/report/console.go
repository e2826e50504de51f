// Package report renders run scorecards to the terminal.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/avolkov/backsim/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implements ports.Reporter.
type Console struct {
	out io.Writer
}

// NewConsole creates a reporter that writes to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter creates a reporter for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// PrintResult prints the full scorecard for a single run.
func (c *Console) PrintResult(r domain.BacktestResult) {
	fmt.Fprintf(c.out, "\n========================================================\n")
	fmt.Fprintf(c.out, "  BACKTEST RESULT\n")
	fmt.Fprintf(c.out, "========================================================\n\n")

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")

	table.Append("Total P&L", fmt.Sprintf("%.4f", r.TotalPnL))
	table.Append("Trades", fmt.Sprintf("%d (W:%d L:%d)", r.TotalTrades, r.WinningTrades, r.LosingTrades))
	table.Append("Win rate", fmt.Sprintf("%.1f%%", r.WinRate))
	table.Append("Profit factor", profitFactorLabel(r.ProfitFactor))
	table.Append("Max drawdown", fmt.Sprintf("%.4f", r.MaxDrawdown))
	table.Append("Sharpe (per trade)", fmt.Sprintf("%.2f", r.SharpeRatio))
	table.Append("Avg profit / loss", fmt.Sprintf("%.4f / %.4f", r.AverageProfit, r.AverageLoss))
	table.Append("Largest win / loss", fmt.Sprintf("%.4f / %.4f", r.LargestWin, r.LargestLoss))
	table.Append("Fill rate", fmt.Sprintf("%.1f%%", r.FillRate))
	table.Append("Avg trade duration", fmt.Sprintf("%.0f ms", r.AvgTradeDurationMs))
	table.Render()

	c.printRating(r.Rating)
}

// PrintBatch prints one row per Monte Carlo run plus aggregate
// dispersion across the batch.
func (c *Console) PrintBatch(results []domain.BacktestResult) {
	if len(results) == 0 {
		fmt.Fprintln(c.out, "\n  No runs completed.")
		return
	}

	fmt.Fprintf(c.out, "\n========================================================\n")
	fmt.Fprintf(c.out, "  MONTE CARLO — %d runs\n", len(results))
	fmt.Fprintf(c.out, "========================================================\n\n")

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "P&L", "Trades", "Win%", "PF", "MaxDD", "Sharpe", "Rating", "Stars")

	for i, r := range results {
		table.Append(
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.4f", r.TotalPnL),
			fmt.Sprintf("%d", r.TotalTrades),
			fmt.Sprintf("%.1f", r.WinRate),
			profitFactorLabel(r.ProfitFactor),
			fmt.Sprintf("%.4f", r.MaxDrawdown),
			fmt.Sprintf("%.2f", r.SharpeRatio),
			fmt.Sprintf("%.1f", r.Rating.Overall),
			starsLabel(r.Rating.Stars),
		)
	}
	table.Render()

	pnlMean, pnlStd := meanStd(results, func(r domain.BacktestResult) float64 { return r.TotalPnL })
	ddMean, _ := meanStd(results, func(r domain.BacktestResult) float64 { return r.MaxDrawdown })
	ratingMean, _ := meanStd(results, func(r domain.BacktestResult) float64 { return r.Rating.Overall })

	profitable := 0
	for _, r := range results {
		if r.TotalPnL > 0 {
			profitable++
		}
	}

	fmt.Fprintf(c.out, "\n  --- AGGREGATE ---\n")
	fmt.Fprintf(c.out, "  P&L:          mean %.4f  stddev %.4f\n", pnlMean, pnlStd)
	fmt.Fprintf(c.out, "  Max drawdown: mean %.4f\n", ddMean)
	fmt.Fprintf(c.out, "  Rating:       mean %.1f/10\n", ratingMean)
	fmt.Fprintf(c.out, "  Profitable runs: %d/%d\n", profitable, len(results))

	fmt.Fprintf(c.out, "\n  --- VERDICT ---\n")
	switch {
	case profitable == len(results) && pnlMean > 0:
		fmt.Fprintf(c.out, "  ROBUST: profitable under every perturbation.\n")
	case float64(profitable) >= float64(len(results))*0.7:
		fmt.Fprintf(c.out, "  PROMISING: profitable in most runs, watch the dispersion.\n")
	default:
		fmt.Fprintf(c.out, "  FRAGILE: results depend on luck, not edge.\n")
	}
	fmt.Fprintln(c.out)
}

func (c *Console) printRating(rt domain.StrategyRating) {
	fmt.Fprintf(c.out, "\n  --- RATING ---\n")
	fmt.Fprintf(c.out, "  Profitability: %4.1f/10\n", rt.Profitability)
	fmt.Fprintf(c.out, "  Stability:     %4.1f/10\n", rt.Stability)
	fmt.Fprintf(c.out, "  Risk:          %4.1f/10\n", rt.Risk)
	fmt.Fprintf(c.out, "  Fill rate:     %4.1f/10\n", rt.FillRate)
	fmt.Fprintf(c.out, "  OVERALL:       %4.1f/10  %s\n\n", rt.Overall, starsLabel(rt.Stars))
}

func profitFactorLabel(pf float64) string {
	if pf >= domain.ProfitFactorCap {
		return "INF"
	}
	return fmt.Sprintf("%.2f", pf)
}

func starsLabel(n int) string {
	if n <= 0 {
		return "-"
	}
	return strings.Repeat("*", n)
}

func meanStd(results []domain.BacktestResult, f func(domain.BacktestResult) float64) (mean, std float64) {
	for _, r := range results {
		mean += f(r)
	}
	mean /= float64(len(results))

	if len(results) > 1 {
		var variance float64
		for _, r := range results {
			d := f(r) - mean
			variance += d * d
		}
		variance /= float64(len(results))
		std = math.Sqrt(variance)
	}
	return mean, std
}
