package strategy

import (
	"testing"

	"github.com/avolkov/backsim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dipTick(price float64) domain.TradeTick {
	return domain.TradeTick{Symbol: "BTCUSDT", Price: price, Side: domain.SideSell}
}

func TestMomentum_BuysTheDip(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig())

	action := m.OnTick(dipTick(100.0), domain.Deltas{Delta15m: -2.0})

	require.Equal(t, domain.ActionPlaceBuy, action.Kind)
	assert.InDelta(t, 99.9, action.Price, 1e-9) // 0.1% below the print
	assert.InDelta(t, 1.0, action.Size, 1e-9)
}

func TestMomentum_IgnoresShallowDips(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig())

	action := m.OnTick(dipTick(100.0), domain.Deltas{Delta15m: -1.0})
	assert.Equal(t, domain.ActionNone, action.Kind)

	action = m.OnTick(dipTick(100.0), domain.Deltas{Delta15m: 2.0})
	assert.Equal(t, domain.ActionNone, action.Kind)
}

func TestMomentum_CapsOpenBuys(t *testing.T) {
	cfg := DefaultMomentumConfig()
	cfg.MaxOpenSignals = 2
	m := NewMomentum(cfg)
	dip := domain.Deltas{Delta15m: -3.0}

	assert.Equal(t, domain.ActionPlaceBuy, m.OnTick(dipTick(100), dip).Kind)
	assert.Equal(t, domain.ActionPlaceBuy, m.OnTick(dipTick(99), dip).Kind)

	action := m.OnTick(dipTick(98), dip)
	assert.Equal(t, domain.ActionDetectSignal, action.Kind)
}

func TestMomentum_FilledBuyFreesASlotAndSells(t *testing.T) {
	cfg := DefaultMomentumConfig()
	cfg.MaxOpenSignals = 1
	m := NewMomentum(cfg)
	dip := domain.Deltas{Delta15m: -3.0}

	require.Equal(t, domain.ActionPlaceBuy, m.OnTick(dipTick(100), dip).Kind)
	require.Equal(t, domain.ActionDetectSignal, m.OnTick(dipTick(99), dip).Kind)

	sell, ok := m.OnBuyFilled(100.0, 1.0)
	require.True(t, ok)
	assert.Equal(t, domain.ActionPlaceSell, sell.Kind)
	assert.InDelta(t, 100.5, sell.Price, 1e-9) // buy price + 0.5% markup
	assert.InDelta(t, 1.0, sell.Size, 1e-9)

	// The fill freed the slot.
	assert.Equal(t, domain.ActionPlaceBuy, m.OnTick(dipTick(98), dip).Kind)
}

func TestMomentum_Reset(t *testing.T) {
	cfg := DefaultMomentumConfig()
	cfg.MaxOpenSignals = 1
	m := NewMomentum(cfg)
	dip := domain.Deltas{Delta15m: -3.0}

	m.OnTick(dipTick(100), dip)
	m.Reset()

	assert.Equal(t, domain.ActionPlaceBuy, m.OnTick(dipTick(100), dip).Kind)
}

func TestNoop_NeverActs(t *testing.T) {
	n := &Noop{}

	assert.Equal(t, domain.ActionNone, n.OnTick(dipTick(100), domain.Deltas{Delta15m: -50}).Kind)
	_, ok := n.OnBuyFilled(100, 1)
	assert.False(t, ok)
}

func TestRegistry_KnownAndUnknown(t *testing.T) {
	r := NewRegistry()

	build, ok := r.Get("momentum")
	require.True(t, ok)
	assert.Equal(t, "momentum", build().Name())

	build, ok = r.Get("noop")
	require.True(t, ok)
	assert.Equal(t, "noop", build().Name())

	_, ok = r.Get("does-not-exist")
	assert.False(t, ok)
}
