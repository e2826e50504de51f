package orderbook

import (
	"math"

	"github.com/tidwall/btree"
)

// FillModel selects how a marketable order consumes resting liquidity
// at a price level.
type FillModel string

const (
	FillFIFO         FillModel = "FIFO"
	FillProRata      FillModel = "PRO_RATA"
	FillTimePriority FillModel = "TIME_PRIORITY"
)

// QueueItem is one resting order inside a level's L3 queue.
type QueueItem struct {
	OrderID   uint64
	Quantity  float64
	IsHidden  bool
	IsIceberg bool
	Timestamp int64 // queue priority
}

// Level aggregates all resting liquidity at one price.
// Invariant: VisibleQty + HiddenQty equals the sum of remaining
// quantities over Orders of matching visibility, when Orders are used.
type Level struct {
	Price      float64
	VisibleQty float64
	HiddenQty  float64
	IcebergQty float64
	Orders     []QueueItem
}

// FilledOrder is one match produced by FillOrder. OrderID 0 marks
// anonymous L2 liquidity with no queue item behind it.
type FilledOrder struct {
	OrderID        uint64
	Price          float64
	ExecutionPrice float64
	Quantity       float64
}

// DepthEntry is one (price, quantity) pair returned by Depth.
type DepthEntry struct {
	Price    float64
	Quantity float64
}

// Book is an in-memory L2/L3 limit order book. Prices are keyed by
// price*1e9 rounded to int64 so float64 jitter never splits a level.
// Not safe for concurrent use; one engine owns one book.
type Book struct {
	Symbol string

	bids *btree.Map[int64, *Level]
	asks *btree.Map[int64, *Level]

	bestBid float64
	bestAsk float64
	hasBid  bool
	hasAsk  bool
}

// qtyEps absorbs float64 subtraction residue when deciding whether a
// level or queue item is exhausted.
const qtyEps = 1e-9

// New creates an empty book for a symbol.
func New(symbol string) *Book {
	return &Book{
		Symbol: symbol,
		bids:   btree.NewMap[int64, *Level](32),
		asks:   btree.NewMap[int64, *Level](32),
	}
}

func priceKey(price float64) int64 {
	return int64(math.Round(price * 1e9))
}

func keyPrice(key int64) float64 {
	return float64(key) / 1e9
}

// UpdateLevel sets or replaces the visible L2 quantity at a price.
// quantity <= 0 removes the level. Queue items are untouched: L2 and
// L3 writes to the same level must be reconciled by the caller.
func (b *Book) UpdateLevel(price, quantity float64, isBid bool) {
	key := priceKey(price)
	side := b.side(isBid)

	if quantity > 0 {
		level, ok := side.Get(key)
		if !ok {
			level = &Level{Price: price}
			side.Set(key, level)
		}
		level.VisibleQty = quantity
	} else {
		side.Delete(key)
	}

	b.updateBestPrices()
}

// ApplyTrade records a historical print as the resting level at its
// price. Opposite-side levels the print crosses are removed first: a
// trade at this price proves that liquidity is gone, and keeping it
// would leave the book crossed.
func (b *Book) ApplyTrade(price, quantity float64, isBid bool) {
	side, keys := b.crossedKeys(price, isBid)
	for _, key := range keys {
		side.Delete(key)
	}
	b.UpdateLevel(price, quantity, isBid)
}

// AddOrderToQueue appends an order to the L3 queue at a price,
// updating the level aggregates additively.
func (b *Book) AddOrderToQueue(price, quantity float64, orderID uint64, isBid, isHidden, isIceberg bool, timestamp int64) {
	key := priceKey(price)
	side := b.side(isBid)

	level, ok := side.Get(key)
	if !ok {
		level = &Level{Price: price}
		side.Set(key, level)
	}

	level.Orders = append(level.Orders, QueueItem{
		OrderID:   orderID,
		Quantity:  quantity,
		IsHidden:  isHidden,
		IsIceberg: isIceberg,
		Timestamp: timestamp,
	})

	if isHidden {
		level.HiddenQty += quantity
	} else {
		level.VisibleQty += quantity
	}
	if isIceberg {
		level.IcebergQty += quantity
	}

	b.updateBestPrices()
}

// FillOrder executes a marketable order against the book. An incoming
// bid consumes asks from the lowest price up to and including price;
// an incoming ask consumes bids from the highest price down to price.
// Levels are drained in price order and removed once empty. Unmatched
// remainder is silently dropped; the caller derives the filled amount
// from the returned matches.
func (b *Book) FillOrder(price, quantity float64, isBid bool, model FillModel) []FilledOrder {
	var filled []FilledOrder
	remaining := quantity

	side, keys := b.crossedKeys(price, isBid)

	for _, key := range keys {
		if remaining <= qtyEps {
			break
		}
		level, ok := side.Get(key)
		if !ok {
			continue
		}

		var matches []FilledOrder
		var consumed float64
		switch model {
		case FillProRata:
			matches, consumed = fillProRata(level, remaining, price)
		case FillTimePriority:
			matches, consumed = fillTimePriority(level, remaining, price)
		default:
			matches, consumed = fillFIFO(level, remaining, price)
		}

		filled = append(filled, matches...)
		remaining -= consumed

		if level.VisibleQty <= qtyEps && level.HiddenQty <= qtyEps {
			side.Delete(key)
		}
	}

	b.updateBestPrices()
	return filled
}

// crossedKeys collects the level keys an incoming order crosses, in
// consumption order.
func (b *Book) crossedKeys(price float64, isBid bool) (*btree.Map[int64, *Level], []int64) {
	key := priceKey(price)
	var keys []int64

	if isBid {
		// Buying: asks from the lowest price up to key.
		b.asks.Scan(func(k int64, _ *Level) bool {
			if k > key {
				return false
			}
			keys = append(keys, k)
			return true
		})
		return b.asks, keys
	}

	// Selling: bids from the highest price down to key.
	b.bids.Reverse(func(k int64, _ *Level) bool {
		if k < key {
			return false
		}
		keys = append(keys, k)
		return true
	})
	return b.bids, keys
}

// BestBid returns the highest bid price, if any.
func (b *Book) BestBid() (float64, bool) { return b.bestBid, b.hasBid }

// BestAsk returns the lowest ask price, if any.
func (b *Book) BestAsk() (float64, bool) { return b.bestAsk, b.hasAsk }

// Spread returns ask minus bid when both sides exist.
func (b *Book) Spread() (float64, bool) {
	if !b.hasBid || !b.hasAsk {
		return 0, false
	}
	return b.bestAsk - b.bestBid, true
}

// Depth returns up to n levels per side: bids in ascending price order
// (best bid last) and asks in ascending price order (best ask first).
// Quantities include hidden liquidity.
func (b *Book) Depth(n int) (bids, asks []DepthEntry) {
	count := 0
	b.bids.Reverse(func(_ int64, level *Level) bool {
		if count >= n {
			return false
		}
		bids = append(bids, DepthEntry{Price: level.Price, Quantity: level.VisibleQty + level.HiddenQty})
		count++
		return true
	})
	for i, j := 0, len(bids)-1; i < j; i, j = i+1, j-1 {
		bids[i], bids[j] = bids[j], bids[i]
	}

	count = 0
	b.asks.Scan(func(_ int64, level *Level) bool {
		if count >= n {
			return false
		}
		asks = append(asks, DepthEntry{Price: level.Price, Quantity: level.VisibleQty + level.HiddenQty})
		count++
		return true
	})

	return bids, asks
}

// LevelAt returns the resting level at a price, if present.
func (b *Book) LevelAt(price float64, isBid bool) (*Level, bool) {
	return b.side(isBid).Get(priceKey(price))
}

func (b *Book) side(isBid bool) *btree.Map[int64, *Level] {
	if isBid {
		return b.bids
	}
	return b.asks
}

func (b *Book) updateBestPrices() {
	if key, _, ok := b.bids.Max(); ok {
		b.bestBid, b.hasBid = keyPrice(key), true
	} else {
		b.bestBid, b.hasBid = 0, false
	}
	if key, _, ok := b.asks.Min(); ok {
		b.bestAsk, b.hasAsk = keyPrice(key), true
	} else {
		b.bestAsk, b.hasAsk = 0, false
	}
}
