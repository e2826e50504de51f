package ports

import "github.com/avolkov/backsim/internal/domain"

// StrategyAdapter is the narrow contract the engine calls to obtain
// order actions. Concrete strategies live outside the simulation core;
// the engine stays agnostic to what sits behind this interface.
type StrategyAdapter interface {
	// OnTick is invoked on discrete recalculations, not on every tick.
	OnTick(tick domain.TradeTick, deltas domain.Deltas) domain.Action

	// OnBuyFilled is invoked when a resting buy order fully fills.
	// A returned PlaceSell action is submitted immediately.
	OnBuyFilled(price, size float64) (domain.Action, bool)

	// CalculateSellPrice derives the exit price for a filled buy,
	// or reports false when the strategy manages exits itself.
	CalculateSellPrice(buyPrice, currentPrice float64) (float64, bool)

	Name() string
	Reset()
}
