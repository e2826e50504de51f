package domain

import (
	"math"
	"time"
)

// ProfitFactorCap is the finite sentinel for "wins and no losses".
// A finite value keeps results serializable and comparable across runs.
const ProfitFactorCap = 1e9

// TradeRecord is one completed round trip recorded by the emulator.
type TradeRecord struct {
	Symbol     string
	EntryPrice float64
	ExitPrice  float64
	Size       float64
	IsBuy      bool
	PnL        float64
	EntryTime  time.Time
	ExitTime   time.Time
}

// EquityPoint is one sample of the cumulative P&L curve.
type EquityPoint struct {
	Timestamp time.Time
	PnL       float64
}

// BacktestMetrics is the running accumulator for one run. It grows
// monotonically during the run and is finalized once into a
// BacktestResult. Drawdown is absolute P&L against the high-water
// mark, not a percentage.
type BacktestMetrics struct {
	TotalPnL      float64
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	MaxDrawdown   float64
	MaxProfit     float64 // high-water mark of cumulative P&L
	EquityCurve   []EquityPoint
	Trades        []TradeRecord
}

// NewBacktestMetrics returns an empty accumulator.
func NewBacktestMetrics() *BacktestMetrics {
	return &BacktestMetrics{}
}

// RecordTrade appends a completed trade and updates P&L, win/loss
// counters, the equity curve and the high-water-mark drawdown.
func (m *BacktestMetrics) RecordTrade(symbol string, entryPrice, exitPrice, size float64, isBuy bool, pnl float64, timestamp time.Time) {
	m.Trades = append(m.Trades, TradeRecord{
		Symbol:     symbol,
		EntryPrice: entryPrice,
		ExitPrice:  exitPrice,
		Size:       size,
		IsBuy:      isBuy,
		PnL:        pnl,
		EntryTime:  timestamp,
		ExitTime:   timestamp,
	})

	m.TotalTrades++
	m.TotalPnL += pnl
	if pnl > 0 {
		m.WinningTrades++
	} else {
		m.LosingTrades++
	}

	m.EquityCurve = append(m.EquityCurve, EquityPoint{Timestamp: timestamp, PnL: m.TotalPnL})

	if m.TotalPnL > m.MaxProfit {
		m.MaxProfit = m.TotalPnL
	}
	if dd := m.MaxProfit - m.TotalPnL; dd > m.MaxDrawdown {
		m.MaxDrawdown = dd
	}
}

// BacktestResult is the immutable scorecard derived from a finished
// run's metrics. Safe to serialize or compare across Monte Carlo runs.
type BacktestResult struct {
	TotalPnL           float64
	TotalTrades        int
	WinningTrades      int
	LosingTrades       int
	WinRate            float64 // percent
	ProfitFactor       float64
	MaxDrawdown        float64
	SharpeRatio        float64
	AverageProfit      float64
	AverageLoss        float64
	LargestWin         float64
	LargestLoss        float64
	FillRate           float64 // percent, simplified proxy
	AvgTradeDurationMs float64
	Rating             StrategyRating
}

// ToResult derives the scorecard from the accumulated trades.
func (m *BacktestMetrics) ToResult() BacktestResult {
	var winRate float64
	if m.TotalTrades > 0 {
		winRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
	}

	var totalProfit, totalLoss float64
	for _, t := range m.Trades {
		if t.PnL > 0 {
			totalProfit += t.PnL
		} else {
			totalLoss += math.Abs(t.PnL)
		}
	}

	var profitFactor float64
	switch {
	case totalLoss > 0:
		profitFactor = totalProfit / totalLoss
	case totalProfit > 0:
		profitFactor = ProfitFactorCap
	}

	var averageProfit, averageLoss float64
	if m.WinningTrades > 0 {
		averageProfit = totalProfit / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		averageLoss = totalLoss / float64(m.LosingTrades)
	}

	var largestWin, largestLoss float64
	for _, t := range m.Trades {
		if t.PnL > largestWin {
			largestWin = t.PnL
		}
		if t.PnL < largestLoss {
			largestLoss = t.PnL
		}
	}

	// Per-trade Sharpe: mean/stddev over trade P&L, no risk-free rate
	// and no annualization. Not comparable to a return-based Sharpe.
	var sharpe float64
	if len(m.Trades) > 1 {
		var sum float64
		for _, t := range m.Trades {
			sum += t.PnL
		}
		mean := sum / float64(len(m.Trades))
		var variance float64
		for _, t := range m.Trades {
			variance += (t.PnL - mean) * (t.PnL - mean)
		}
		variance /= float64(len(m.Trades))
		if std := math.Sqrt(variance); std > 0 {
			sharpe = mean / std
		}
	}

	// Proxy fill rate: completed trades over completed-plus-losing.
	// Not a true fill-attempt ratio.
	var fillRate float64
	if attempts := m.TotalTrades + m.LosingTrades; attempts > 0 {
		fillRate = float64(m.TotalTrades) / float64(attempts) * 100
	}

	var avgDurationMs float64
	if len(m.Trades) > 0 {
		var sum int64
		for _, t := range m.Trades {
			sum += t.ExitTime.Sub(t.EntryTime).Milliseconds()
		}
		avgDurationMs = float64(sum) / float64(len(m.Trades))
	}

	rating := calculateRating(m.TotalPnL, profitFactor, winRate, sharpe, m.MaxDrawdown, fillRate)

	return BacktestResult{
		TotalPnL:           m.TotalPnL,
		TotalTrades:        m.TotalTrades,
		WinningTrades:      m.WinningTrades,
		LosingTrades:       m.LosingTrades,
		WinRate:            winRate,
		ProfitFactor:       profitFactor,
		MaxDrawdown:        m.MaxDrawdown,
		SharpeRatio:        sharpe,
		AverageProfit:      averageProfit,
		AverageLoss:        averageLoss,
		LargestWin:         largestWin,
		LargestLoss:        largestLoss,
		FillRate:           fillRate,
		AvgTradeDurationMs: avgDurationMs,
		Rating:             rating,
	}
}
