package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBook_FillOrder_PartialAgainstL2Level(t *testing.T) {
	b := New("BTCUSDT")
	b.UpdateLevel(100.0, 10.0, false)

	filled := b.FillOrder(100.0, 6.0, true, FillFIFO)

	require.Len(t, filled, 1)
	assert.Equal(t, uint64(0), filled[0].OrderID) // anonymous L2 liquidity
	assert.InDelta(t, 6.0, filled[0].Quantity, 1e-12)
	assert.InDelta(t, 100.0, filled[0].Price, 1e-12)

	level, ok := b.LevelAt(100.0, false)
	require.True(t, ok)
	assert.InDelta(t, 4.0, level.VisibleQty, 1e-12)

	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.InDelta(t, 100.0, ask, 1e-12)
}

func TestBook_FillOrder_RemovesExhaustedLevel(t *testing.T) {
	b := New("BTCUSDT")
	b.UpdateLevel(100.0, 5.0, false)

	filled := b.FillOrder(100.0, 5.0, true, FillFIFO)

	require.Len(t, filled, 1)
	_, ok := b.LevelAt(100.0, false)
	assert.False(t, ok)
	_, ok = b.BestAsk()
	assert.False(t, ok)
}

func TestBook_FillOrder_CrossesMultipleAskLevels(t *testing.T) {
	b := New("BTCUSDT")
	b.UpdateLevel(100.0, 3.0, false)
	b.UpdateLevel(101.0, 3.0, false)
	b.UpdateLevel(102.0, 3.0, false)

	// Limit 101: must drain 100 fully, then 101, never touch 102.
	filled := b.FillOrder(101.0, 5.0, true, FillFIFO)

	require.Len(t, filled, 2)
	assert.InDelta(t, 100.0, filled[0].Price, 1e-12)
	assert.InDelta(t, 3.0, filled[0].Quantity, 1e-12)
	assert.InDelta(t, 101.0, filled[1].Price, 1e-12)
	assert.InDelta(t, 2.0, filled[1].Quantity, 1e-12)

	level, ok := b.LevelAt(102.0, false)
	require.True(t, ok)
	assert.InDelta(t, 3.0, level.VisibleQty, 1e-12)
}

func TestBook_FillOrder_SellConsumesBidsDownward(t *testing.T) {
	b := New("BTCUSDT")
	b.UpdateLevel(99.0, 2.0, true)
	b.UpdateLevel(98.0, 2.0, true)
	b.UpdateLevel(97.0, 2.0, true)

	filled := b.FillOrder(98.0, 3.0, false, FillFIFO)

	require.Len(t, filled, 2)
	assert.InDelta(t, 99.0, filled[0].Price, 1e-12) // best bid first
	assert.InDelta(t, 98.0, filled[1].Price, 1e-12)

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.InDelta(t, 98.0, bid, 1e-12)
}

func TestBook_FillOrder_NoCrossReturnsNothing(t *testing.T) {
	b := New("BTCUSDT")
	b.UpdateLevel(101.0, 10.0, false)

	filled := b.FillOrder(100.0, 5.0, true, FillFIFO)

	assert.Empty(t, filled)
	level, ok := b.LevelAt(101.0, false)
	require.True(t, ok)
	assert.InDelta(t, 10.0, level.VisibleQty, 1e-12)
}

func TestBook_FillOrder_FIFOHonorsQueueTime(t *testing.T) {
	b := New("BTCUSDT")
	b.AddOrderToQueue(100.0, 4.0, 2, false, false, false, 200)
	b.AddOrderToQueue(100.0, 4.0, 1, false, false, false, 100)

	filled := b.FillOrder(100.0, 5.0, true, FillFIFO)

	require.Len(t, filled, 2)
	assert.Equal(t, uint64(1), filled[0].OrderID) // earlier timestamp first
	assert.InDelta(t, 4.0, filled[0].Quantity, 1e-12)
	assert.Equal(t, uint64(2), filled[1].OrderID)
	assert.InDelta(t, 1.0, filled[1].Quantity, 1e-12)

	level, ok := b.LevelAt(100.0, false)
	require.True(t, ok)
	assert.InDelta(t, 3.0, level.VisibleQty, 1e-12)
	require.Len(t, level.Orders, 1)
	assert.Equal(t, uint64(2), level.Orders[0].OrderID)
}

func TestBook_FillOrder_TimePriorityBreaksTiesBySize(t *testing.T) {
	b := New("BTCUSDT")
	b.AddOrderToQueue(100.0, 2.0, 1, false, false, false, 100)
	b.AddOrderToQueue(100.0, 6.0, 2, false, false, false, 100)

	filled := b.FillOrder(100.0, 6.0, true, FillTimePriority)

	require.Len(t, filled, 2)
	assert.Equal(t, uint64(2), filled[0].OrderID) // same time, bigger first
	assert.InDelta(t, 6.0, filled[0].Quantity, 1e-12)
}

func TestBook_FillOrder_ProRataSplitsProportionally(t *testing.T) {
	b := New("BTCUSDT")
	b.AddOrderToQueue(100.0, 6.0, 1, false, false, false, 100)
	b.AddOrderToQueue(100.0, 2.0, 2, false, false, false, 200)

	filled := b.FillOrder(100.0, 4.0, true, FillProRata)

	require.Len(t, filled, 2)
	assert.Equal(t, uint64(1), filled[0].OrderID)
	assert.InDelta(t, 3.0, filled[0].Quantity, 1e-9) // 4 * 6/8
	assert.Equal(t, uint64(2), filled[1].OrderID)
	assert.InDelta(t, 1.0, filled[1].Quantity, 1e-9) // 4 * 2/8

	level, ok := b.LevelAt(100.0, false)
	require.True(t, ok)
	assert.InDelta(t, 4.0, level.VisibleQty, 1e-9)
	assert.Len(t, level.Orders, 2)
}

func TestBook_FillOrder_ConservesQuantity(t *testing.T) {
	for _, model := range []FillModel{FillFIFO, FillTimePriority, FillProRata} {
		b := New("BTCUSDT")
		b.AddOrderToQueue(100.0, 3.0, 1, false, false, false, 100)
		b.AddOrderToQueue(100.0, 3.0, 2, false, true, false, 200)
		b.UpdateLevel(101.0, 4.0, false)

		filled := b.FillOrder(101.0, 8.0, true, model)

		var total float64
		for _, f := range filled {
			total += f.Quantity
		}
		assert.InDelta(t, 8.0, total, 1e-9, "model %s", model)
	}
}

func TestBook_BestPricesAndSpread(t *testing.T) {
	b := New("BTCUSDT")

	_, ok := b.Spread()
	assert.False(t, ok)

	b.UpdateLevel(99.5, 1.0, true)
	b.UpdateLevel(99.0, 1.0, true)
	b.UpdateLevel(100.5, 1.0, false)
	b.UpdateLevel(101.0, 1.0, false)

	bid, ok := b.BestBid()
	require.True(t, ok)
	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.InDelta(t, 99.5, bid, 1e-12)
	assert.InDelta(t, 100.5, ask, 1e-12)
	assert.Less(t, bid, ask)

	spread, ok := b.Spread()
	require.True(t, ok)
	assert.InDelta(t, 1.0, spread, 1e-9)
}

func TestBook_UpdateLevel_ZeroRemoves(t *testing.T) {
	b := New("BTCUSDT")
	b.UpdateLevel(100.0, 5.0, true)
	b.UpdateLevel(100.0, 0.0, true)

	_, ok := b.LevelAt(100.0, true)
	assert.False(t, ok)
	_, ok = b.BestBid()
	assert.False(t, ok)
}

func TestBook_ApplyTrade_RemovesCrossedOppositeLevels(t *testing.T) {
	b := New("BTCUSDT")
	b.ApplyTrade(100.0, 1.0, true) // sell print rests as a bid
	b.ApplyTrade(99.0, 2.0, false) // buy print below displaces it

	_, hasBid := b.BestBid()
	assert.False(t, hasBid)

	ask, hasAsk := b.BestAsk()
	require.True(t, hasAsk)
	assert.InDelta(t, 99.0, ask, 1e-12)
}

func TestBook_ApplyTrade_NonCrossingKeepsBothSides(t *testing.T) {
	b := New("BTCUSDT")
	b.ApplyTrade(99.0, 1.0, true)
	b.ApplyTrade(100.0, 2.0, false)

	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	require.True(t, hasBid)
	require.True(t, hasAsk)
	assert.Less(t, bid, ask)

	spread, ok := b.Spread()
	require.True(t, ok)
	assert.InDelta(t, 1.0, spread, 1e-12)
}

func TestBook_ApplyTrade_EqualPriceClearsOpposite(t *testing.T) {
	b := New("BTCUSDT")
	b.ApplyTrade(100.0, 1.0, false)
	b.ApplyTrade(100.0, 3.0, true) // trades at the ask consume it

	_, hasAsk := b.BestAsk()
	assert.False(t, hasAsk)

	bid, hasBid := b.BestBid()
	require.True(t, hasBid)
	assert.InDelta(t, 100.0, bid, 1e-12)
}

func TestBook_Depth_Ordering(t *testing.T) {
	b := New("BTCUSDT")
	b.UpdateLevel(99.0, 1.0, true)
	b.UpdateLevel(98.0, 2.0, true)
	b.UpdateLevel(97.0, 3.0, true)
	b.UpdateLevel(101.0, 1.0, false)
	b.UpdateLevel(102.0, 2.0, false)

	bids, asks := b.Depth(2)

	require.Len(t, bids, 2)
	assert.InDelta(t, 98.0, bids[0].Price, 1e-12) // ascending, best bid last
	assert.InDelta(t, 99.0, bids[1].Price, 1e-12)

	require.Len(t, asks, 2)
	assert.InDelta(t, 101.0, asks[0].Price, 1e-12) // best ask first
	assert.InDelta(t, 102.0, asks[1].Price, 1e-12)
}

func TestBook_Depth_IncludesHiddenQuantity(t *testing.T) {
	b := New("BTCUSDT")
	b.AddOrderToQueue(100.0, 2.0, 1, false, false, false, 100)
	b.AddOrderToQueue(100.0, 3.0, 2, false, true, false, 200)

	_, asks := b.Depth(1)
	require.Len(t, asks, 1)
	assert.InDelta(t, 5.0, asks[0].Quantity, 1e-12)
}

func TestBook_PriceKeyStability(t *testing.T) {
	b := New("BTCUSDT")

	// 0.1+0.2 style float jitter must land on the same level.
	b.UpdateLevel(0.30000000000000004, 1.0, true)
	b.UpdateLevel(0.3, 2.0, true)

	level, ok := b.LevelAt(0.3, true)
	require.True(t, ok)
	assert.InDelta(t, 2.0, level.VisibleQty, 1e-12)
}
