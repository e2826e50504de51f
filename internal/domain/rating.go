package domain

import "math"

// StrategyRating is a 0-10 composite scorecard, deterministic from the
// derived result metrics.
type StrategyRating struct {
	Profitability float64 // 0-10
	Stability     float64 // 0-10
	Risk          float64 // 0-10, inverse: more drawdown = lower score
	FillRate      float64 // 0-10
	Overall       float64 // weighted 0-10
	Stars         int     // 0-5
}

// calculateRating folds the result metrics into the composite rating.
//
// Profitability blends P&L (10 points at 10k profit), profit factor
// (10 points at PF >= 5) and win rate. Stability is the Sharpe score
// (10 points at Sharpe >= 3). Risk divides absolute drawdown by 100.
func calculateRating(totalPnL, profitFactor, winRate, sharpe, maxDrawdown, fillRate float64) StrategyRating {
	pnlScore := clamp(totalPnL/1000, 0, 10)
	pfScore := clamp(math.Min(profitFactor, 5)/5*10, 0, 10)
	wrScore := clamp(winRate/100*10, 0, 10)
	profitability := math.Min(pnlScore*0.4+pfScore*0.3+wrScore*0.3, 10)

	stability := clamp(math.Min(sharpe, 3)/3*10, 0, 10)

	risk := 10.0
	if maxDrawdown > 0 {
		risk = clamp((1-math.Min(maxDrawdown, 100)/100)*10, 0, 10)
	}

	fillScore := clamp(fillRate/100*10, 0, 10)

	overall := profitability*0.35 + stability*0.25 + risk*0.25 + fillScore*0.15

	var stars int
	switch {
	case overall >= 9:
		stars = 5
	case overall >= 8:
		stars = 4
	case overall >= 7:
		stars = 3
	case overall >= 6:
		stars = 2
	case overall >= 5:
		stars = 1
	}

	return StrategyRating{
		Profitability: profitability,
		Stability:     stability,
		Risk:          risk,
		FillRate:      fillScore,
		Overall:       overall,
		Stars:         stars,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
