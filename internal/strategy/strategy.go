// Package strategy holds the strategy adapters shipped with the CLI.
// Signal logic is deliberately thin: the simulation core only depends
// on ports.StrategyAdapter, and real strategies live elsewhere.
package strategy

import (
	"github.com/avolkov/backsim/internal/domain"
	"github.com/avolkov/backsim/internal/ports"
)

// Registry maps adapter names to factories. Factories (not instances)
// so every Monte Carlo child starts from fresh strategy state.
type Registry map[string]func() ports.StrategyAdapter

// NewRegistry returns a registry with the built-in adapters.
func NewRegistry() Registry {
	return Registry{
		noopName: func() ports.StrategyAdapter { return &Noop{} },
		momentumName: func() ports.StrategyAdapter {
			return NewMomentum(DefaultMomentumConfig())
		},
	}
}

// Get returns the factory for a name.
func (r Registry) Get(name string) (func() ports.StrategyAdapter, bool) {
	f, ok := r[name]
	return f, ok
}

const noopName = "noop"

// Noop never acts. It exists for determinism checks and for runs that
// only exercise the market plumbing.
type Noop struct{}

func (*Noop) OnTick(domain.TradeTick, domain.Deltas) domain.Action {
	return domain.NoAction()
}

func (*Noop) OnBuyFilled(float64, float64) (domain.Action, bool) {
	return domain.Action{}, false
}

func (*Noop) CalculateSellPrice(float64, float64) (float64, bool) {
	return 0, false
}

func (*Noop) Name() string { return noopName }
func (*Noop) Reset()       {}
