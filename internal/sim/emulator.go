package sim

import (
	"sort"
	"time"

	"github.com/avolkov/backsim/internal/domain"
	"github.com/avolkov/backsim/internal/ports"
)

// Order is a resting order owned by the emulator. Mutated in place on
// partial fills, removed on full fill or cancel.
type Order struct {
	ID       uint64
	Symbol   string
	Price    float64
	Size     float64
	Filled   float64
	IsBuy    bool
	PlacedAt time.Time
	FilledAt time.Time // zero until fully filled
}

// tickVolumeShare caps how much of a resting order one tick can fill:
// a single trade only clears a fraction of the queue at a price.
const tickVolumeShare = 0.1

// Emulator owns the pool of resting orders and decides, tick by tick,
// whether and how much of each order fills. A marketable price touch
// does not guarantee a fill: a uniform draw against FillProbability
// models queue competition and adverse selection without a full L3
// book per order. It is a statistical approximation, deliberately
// distinct from the exact matching in the orderbook package.
type Emulator struct {
	settings    EmulatorSettings
	active      map[uint64]*Order
	nextOrderID uint64
}

// NewEmulator creates an emulator with an empty order pool.
func NewEmulator(settings EmulatorSettings) *Emulator {
	return &Emulator{
		settings:    settings,
		active:      make(map[uint64]*Order),
		nextOrderID: 1,
	}
}

// PlaceLimitOrder stores a resting order and returns its id, or 0 when
// the active-order cap is reached.
func (e *Emulator) PlaceLimitOrder(symbol string, price, size float64, isBuy bool, timestamp time.Time) uint64 {
	if len(e.active) >= e.settings.MaxActiveOrders {
		return 0
	}

	id := e.nextOrderID
	e.nextOrderID++

	e.active[id] = &Order{
		ID:       id,
		Symbol:   symbol,
		Price:    price,
		Size:     size,
		IsBuy:    isBuy,
		PlacedAt: timestamp,
	}
	return id
}

// ProcessTick checks every resting order on the tick's symbol. An
// order fills when the tick price crossed its limit and the fill draw
// succeeds; slippage moves the execution price against the order's
// side, and at most tickVolumeShare of the tick volume fills per tick.
// Fully filled orders are removed and recorded into metrics.
//
// Orders are visited in ascending id order so runs are reproducible.
func (e *Emulator) ProcessTick(tick domain.TradeTick, metrics *domain.BacktestMetrics, rng ports.Rng) {
	for _, id := range e.sortedIDs() {
		order, ok := e.active[id]
		if !ok || order.Symbol != tick.Symbol {
			continue
		}

		crossed := tick.Price >= order.Price
		if order.IsBuy {
			crossed = tick.Price <= order.Price
		}
		if !crossed {
			continue
		}

		if rng.Float64() >= e.settings.FillProbability {
			continue
		}

		executionPrice := tick.Price * (1 - e.settings.SlippagePercent/100)
		if order.IsBuy {
			executionPrice = tick.Price * (1 + e.settings.SlippagePercent/100)
		}

		remaining := order.Size - order.Filled
		fillSize := tick.Volume * tickVolumeShare
		if fillSize > remaining {
			fillSize = remaining
		}
		order.Filled += fillSize

		if order.Filled < order.Size {
			continue
		}

		order.FilledAt = tick.Timestamp

		pnl := (order.Price - executionPrice) * order.Size
		if order.IsBuy {
			pnl = (executionPrice - order.Price) * order.Size
		}

		metrics.RecordTrade(tick.Symbol, order.Price, executionPrice, order.Size, order.IsBuy, pnl, tick.Timestamp)
		delete(e.active, id)
	}
}

// ExecuteOrder force-fills the remainder of an order at its own limit
// price (no slippage, zero incremental P&L). Used by the delayed
// execution event. No-op if the id is absent.
func (e *Emulator) ExecuteOrder(orderID uint64, timestamp time.Time, metrics *domain.BacktestMetrics) {
	order, ok := e.active[orderID]
	if !ok || order.Filled >= order.Size {
		return
	}

	order.Filled = order.Size
	order.FilledAt = timestamp

	metrics.RecordTrade(order.Symbol, order.Price, order.Price, order.Size, order.IsBuy, 0, timestamp)
	delete(e.active, orderID)
}

// RepositionOrder moves a resting order to a new price, resetting its
// queue time. No-op if the id is absent.
func (e *Emulator) RepositionOrder(orderID uint64, newPrice float64, timestamp time.Time) {
	if order, ok := e.active[orderID]; ok {
		order.Price = newPrice
		order.PlacedAt = timestamp
	}
}

// CancelOrder removes a resting order; false if the id is absent.
func (e *Emulator) CancelOrder(orderID uint64) bool {
	if _, ok := e.active[orderID]; !ok {
		return false
	}
	delete(e.active, orderID)
	return true
}

// ActiveOrders returns copies of the resting orders in ascending id
// order.
func (e *Emulator) ActiveOrders() []Order {
	orders := make([]Order, 0, len(e.active))
	for _, id := range e.sortedIDs() {
		orders = append(orders, *e.active[id])
	}
	return orders
}

// ActiveCount returns the number of resting orders.
func (e *Emulator) ActiveCount() int { return len(e.active) }

// FindBySymbol returns the lowest-id resting order on a symbol.
func (e *Emulator) FindBySymbol(symbol string) (uint64, bool) {
	for _, id := range e.sortedIDs() {
		if e.active[id].Symbol == symbol {
			return id, true
		}
	}
	return 0, false
}

func (e *Emulator) sortedIDs() []uint64 {
	ids := make([]uint64, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
