package sim

import (
	"testing"
	"time"

	"github.com/avolkov/backsim/internal/domain"
	"github.com/stretchr/testify/assert"
)

func pricePointTick(symbol string, price float64, at time.Time) domain.TradeTick {
	return domain.TradeTick{Timestamp: at, Symbol: symbol, Price: price, Volume: 1, Side: domain.SideSell}
}

func TestDeltaCalculator_PercentMoveOverWindow(t *testing.T) {
	d := NewDeltaCalculator()
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	d.Update(pricePointTick("BTCUSDT", 100.0, start))
	d.Update(pricePointTick("BTCUSDT", 98.0, start.Add(10*time.Minute)))

	deltas := d.Calculate("BTCUSDT", 98.0, start.Add(10*time.Minute))

	assert.InDelta(t, -2.0, deltas.Delta15m, 1e-9)
	assert.InDelta(t, -2.0, deltas.Delta3h, 1e-9)
	// 5m window no longer contains the 100.0 print.
	assert.InDelta(t, 0.0, deltas.Delta5m, 1e-9)
}

func TestDeltaCalculator_NoHistoryIsZero(t *testing.T) {
	d := NewDeltaCalculator()
	deltas := d.Calculate("BTCUSDT", 100.0, time.Now().UTC())
	assert.Zero(t, deltas.Delta15m)
	assert.Zero(t, deltas.Market)
}

func TestDeltaCalculator_PrunesBeyondThreeHours(t *testing.T) {
	d := NewDeltaCalculator()
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	d.Update(pricePointTick("BTCUSDT", 50.0, start))
	d.Update(pricePointTick("BTCUSDT", 100.0, start.Add(4*time.Hour)))

	deltas := d.Calculate("BTCUSDT", 100.0, start.Add(4*time.Hour))
	assert.InDelta(t, 0.0, deltas.Delta3h, 1e-9)
}

func TestDeltaCalculator_BTCDeltaFromBTCSymbol(t *testing.T) {
	d := NewDeltaCalculator()
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	d.Update(pricePointTick("ETHUSDT", 10.0, start))
	d.Update(pricePointTick("BTCUSDT", 100.0, start))
	d.Update(pricePointTick("BTCUSDT", 110.0, start.Add(30*time.Minute)))

	deltas := d.Calculate("ETHUSDT", 10.0, start.Add(30*time.Minute))
	assert.InDelta(t, 10.0, deltas.BTC, 1e-9)
}
