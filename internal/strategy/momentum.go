package strategy

import (
	"fmt"

	"github.com/avolkov/backsim/internal/domain"
)

const momentumName = "momentum"

// MomentumConfig tunes the dip-buying adapter.
type MomentumConfig struct {
	DipPercent     float64 // 15m delta at or below -DipPercent triggers a buy
	OrderSize      float64
	SellMarkup     float64 // sell at buy price * (1 + SellMarkup/100)
	BidDiscount    float64 // bid below the current price by this percent
	MaxOpenSignals int     // stop buying after this many unfilled buys
}

// DefaultMomentumConfig buys 1.0-size dips of 1.5% and exits 0.5% up.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		DipPercent:     1.5,
		OrderSize:      1.0,
		SellMarkup:     0.5,
		BidDiscount:    0.1,
		MaxOpenSignals: 3,
	}
}

// Momentum is a small mean-reversion adapter: buy below the market
// after a sharp 15-minute drop, exit at a fixed markup. It exists so
// the CLI can run end to end and so engine tests have a strategy with
// observable behavior.
type Momentum struct {
	cfg       MomentumConfig
	openBuys  int
	lastPrice float64
}

// NewMomentum creates the adapter.
func NewMomentum(cfg MomentumConfig) *Momentum {
	return &Momentum{cfg: cfg}
}

func (m *Momentum) OnTick(tick domain.TradeTick, deltas domain.Deltas) domain.Action {
	m.lastPrice = tick.Price

	if deltas.Delta15m > -m.cfg.DipPercent {
		return domain.NoAction()
	}
	if m.openBuys >= m.cfg.MaxOpenSignals {
		return domain.DetectSignal(fmt.Sprintf(
			"momentum: dip %.2f%% ignored, %d buys already open", deltas.Delta15m, m.openBuys))
	}

	m.openBuys++
	bid := tick.Price * (1 - m.cfg.BidDiscount/100)
	return domain.PlaceBuy(bid, m.cfg.OrderSize)
}

func (m *Momentum) OnBuyFilled(price, size float64) (domain.Action, bool) {
	if m.openBuys > 0 {
		m.openBuys--
	}
	sellPrice, ok := m.CalculateSellPrice(price, m.lastPrice)
	if !ok {
		return domain.Action{}, false
	}
	return domain.PlaceSell(sellPrice, size), true
}

func (m *Momentum) CalculateSellPrice(buyPrice, _ float64) (float64, bool) {
	return buyPrice * (1 + m.cfg.SellMarkup/100), true
}

func (m *Momentum) Name() string { return momentumName }

func (m *Momentum) Reset() {
	m.openBuys = 0
	m.lastPrice = 0
}
