package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avolkov/backsim/internal/domain"
	"github.com/avolkov/backsim/internal/orderbook"
	"github.com/avolkov/backsim/internal/ports"
)

var (
	// ErrNoStreams means Run was called before any stream was attached.
	ErrNoStreams = errors.New("sim: no trade streams loaded")

	// ErrInvalidMode means a non-emulator execution mode reached Run.
	// The simulator must be structurally unable to place live orders.
	ErrInvalidMode = errors.New("sim: backtest must run in emulator mode, real trading is disabled")
)

// RunState is the engine lifecycle.
type RunState string

const (
	StateIdle      RunState = "IDLE"
	StateRunning   RunState = "RUNNING"
	StateStopped   RunState = "STOPPED"
	StateCompleted RunState = "COMPLETED"
)

const progressEveryTicks = 10000

// Engine replays historical ticks through the emulator and attached
// strategies as one deterministic discrete-event loop. Single-threaded
// and synchronous per run: given the same streams and an explicit
// seed, two engines produce bit-identical results.
//
// Two clocks run side by side. currentTime is the data clock, always
// the tick's own historical timestamp. adjustedTime adds a random
// network lag on top and is used only for scheduling delayed effects
// and for the recalculation interval: strategy reaction lags the
// observed data, the historical record itself does not.
type Engine struct {
	settings Settings
	rng      ports.Rng

	streams    []*domain.TradeStream
	strategies []ports.StrategyAdapter
	filters    StreamFilters

	market   domain.MarketState
	books    map[string]*orderbook.Book
	emulator *Emulator
	deltas   *DeltaCalculator
	metrics  *domain.BacktestMetrics
	events   eventQueue

	currentTime time.Time
	lastRecalc  time.Time
	forceRecalc bool

	state   RunState
	stopped bool
}

// NewEngine builds an idle engine. When EnforceEmulatorMode is set the
// configured mode is overridden to Emulator unconditionally: this is
// the hard safety guard against live order paths. The RNG is seeded
// from settings, or from the wall clock when no seed is set (such runs
// are not reproducible).
func NewEngine(settings Settings, emulatorSettings EmulatorSettings) *Engine {
	if settings.EnforceEmulatorMode {
		settings.Mode = ModeEmulator
	}

	var rng ports.Rng
	if settings.RandomSeed != nil {
		rng = NewSeededRNG(*settings.RandomSeed)
	} else {
		rng = NewSeededRNG(time.Now().UnixNano())
	}

	return &Engine{
		settings: settings,
		rng:      rng,
		books:    make(map[string]*orderbook.Book),
		emulator: NewEmulator(emulatorSettings),
		deltas:   NewDeltaCalculator(),
		metrics:  domain.NewBacktestMetrics(),
		state:    StateIdle,
	}
}

// WithRng swaps the randomness source, e.g. ZeroRNG for a run with no
// noise at all. Must be called before Run.
func (e *Engine) WithRng(rng ports.Rng) *Engine {
	e.rng = rng
	return e
}

// SetFilters installs stream admission filters.
func (e *Engine) SetFilters(f StreamFilters) { e.filters = f }

// AddStream attaches a stream for the run. Streams rejected by the
// filters are skipped with a log line.
func (e *Engine) AddStream(stream *domain.TradeStream) {
	if ok, reason := e.filters.Check(stream); !ok {
		slog.Info("stream rejected by filters", "symbol", stream.Symbol, "reason", reason)
		return
	}
	e.streams = append(e.streams, stream)
}

// AddStrategy attaches a strategy adapter.
func (e *Engine) AddStrategy(s ports.StrategyAdapter) {
	e.strategies = append(e.strategies, s)
}

// State returns the engine lifecycle state.
func (e *Engine) State() RunState { return e.state }

// Settings returns the effective (possibly mode-overridden) settings.
func (e *Engine) Settings() Settings { return e.settings }

// Stop requests a cooperative stop; checked once per loop iteration.
func (e *Engine) Stop() { e.stopped = true }

// Run executes the backtest to data exhaustion and derives the result.
// Fails fast when no streams are attached or a non-emulator mode
// slipped through.
func (e *Engine) Run(ctx context.Context) (domain.BacktestResult, error) {
	if len(e.streams) == 0 {
		return domain.BacktestResult{}, ErrNoStreams
	}
	if e.settings.Mode != ModeEmulator {
		return domain.BacktestResult{}, ErrInvalidMode
	}

	e.state = StateRunning
	e.currentTime = e.earliestTimestamp()
	e.lastRecalc = e.currentTime

	slog.Info("starting backtest",
		"streams", len(e.streams),
		"strategies", len(e.strategies),
		"seed", seedLabel(e.settings.RandomSeed),
	)

	tickCount := 0
	for !e.stopped && e.hasMoreData() {
		select {
		case <-ctx.Done():
			e.stopped = true
			continue
		default:
		}

		tick, ok := e.nextTick()
		if !ok {
			break
		}

		// Data clock from the tick, reaction clock with network lag.
		lagMs := e.rng.Int64Between(e.settings.LatencyMsRange.Min, e.settings.LatencyMsRange.Max)
		e.currentTime = tick.Timestamp
		adjusted := e.currentTime.Add(time.Duration(lagMs) * time.Millisecond)

		// The feed "missed" this trade entirely.
		if e.settings.MissedTradeProbability > 0 && e.rng.Float64() < e.settings.MissedTradeProbability {
			continue
		}

		e.drainEvents(adjusted)

		if e.forceRecalc || adjusted.Sub(e.lastRecalc).Milliseconds() >= e.settings.RecalculationIntervalMs {
			e.recalculateStrategies(tick, adjusted)
			e.lastRecalc = adjusted
			e.forceRecalc = false
		}

		e.market.UpdateFromTick(tick)
		e.bookFor(tick.Symbol).ApplyTrade(tick.Price, tick.Volume, !tick.Side.IsBuy())
		e.deltas.Update(tick)

		e.emulateFills(tick, adjusted)

		tickCount++
		if tickCount%progressEveryTicks == 0 {
			slog.Info("backtest progress", "ticks", tickCount, "pnl", fmt.Sprintf("%.2f", e.metrics.TotalPnL))
		}
	}

	if e.stopped {
		e.state = StateStopped
	} else {
		e.state = StateCompleted
	}

	slog.Info("backtest finished",
		"ticks", tickCount,
		"trades", e.metrics.TotalTrades,
		"pnl", fmt.Sprintf("%.2f", e.metrics.TotalPnL),
		"state", string(e.state),
	)

	return e.metrics.ToResult(), nil
}

// nextTick picks the earliest tick across all streams (k-way merge by
// timestamp, ties broken by stream order) and advances that cursor.
func (e *Engine) nextTick() (domain.TradeTick, bool) {
	best := -1
	var bestTick domain.TradeTick

	for i, stream := range e.streams {
		tick, ok := stream.Peek()
		if !ok {
			continue
		}
		if best == -1 || tick.Timestamp.Before(bestTick.Timestamp) {
			best = i
			bestTick = tick
		}
	}

	if best == -1 {
		return domain.TradeTick{}, false
	}
	e.streams[best].Next()
	return bestTick, true
}

func (e *Engine) hasMoreData() bool {
	for _, s := range e.streams {
		if s.HasMore() {
			return true
		}
	}
	return false
}

func (e *Engine) earliestTimestamp() time.Time {
	var earliest time.Time
	for _, s := range e.streams {
		if tick, ok := s.Peek(); ok {
			if earliest.IsZero() || tick.Timestamp.Before(earliest) {
				earliest = tick.Timestamp
			}
		}
	}
	if earliest.IsZero() {
		return time.Now().UTC()
	}
	return earliest
}

// drainEvents executes every queued effect that is due at the
// adjusted clock.
func (e *Engine) drainEvents(adjusted time.Time) {
	for _, ev := range e.events.drainDue(adjusted) {
		switch ev.kind {
		case eventOrderExecution:
			e.emulator.ExecuteOrder(ev.orderID, adjusted, e.metrics)
		case eventOrderReposition:
			e.emulator.RepositionOrder(ev.orderID, ev.newPrice, adjusted)
		case eventStrategyRecalculation:
			e.forceRecalc = true
		}
	}
}

// ScheduleExecution queues a delayed force-fill for a resting order,
// drawn from the execution delay range.
func (e *Engine) ScheduleExecution(orderID uint64, from time.Time) {
	delay := e.rng.Int64Between(e.settings.ExecutionDelayMsRange.Min, e.settings.ExecutionDelayMsRange.Max)
	e.events.push(delayedEvent{
		kind:      eventOrderExecution,
		orderID:   orderID,
		executeAt: from.Add(time.Duration(delay) * time.Millisecond),
	})
}

// ScheduleReposition queues a delayed price move for a resting order,
// drawn from the reposition delay range.
func (e *Engine) ScheduleReposition(orderID uint64, newPrice float64, from time.Time) {
	delay := e.rng.Int64Between(e.settings.RepositionDelayMsRange.Min, e.settings.RepositionDelayMsRange.Max)
	e.events.push(delayedEvent{
		kind:      eventOrderReposition,
		orderID:   orderID,
		newPrice:  newPrice,
		executeAt: from.Add(time.Duration(delay) * time.Millisecond),
	})
}

// recalculateStrategies runs the discrete strategy pass: deltas are
// computed once and each adapter's action is applied to the emulator
// immediately. After the pass there is a 10% chance of queueing a
// delayed follow-up recalculation, emulating a later re-adjustment of
// resting sell orders.
func (e *Engine) recalculateStrategies(tick domain.TradeTick, adjusted time.Time) {
	deltas := e.deltas.Calculate(tick.Symbol, tick.Price, adjusted)

	for _, adapter := range e.strategies {
		action := adapter.OnTick(tick, deltas)
		e.applyAction(adapter, action, tick, adjusted)
	}

	if e.rng.Bool(0.1) {
		delay := e.rng.Int64Between(e.settings.RepositionDelayMsRange.Min, e.settings.RepositionDelayMsRange.Max)
		e.events.push(delayedEvent{
			kind:      eventStrategyRecalculation,
			executeAt: adjusted.Add(time.Duration(delay) * time.Millisecond),
		})
	}
}

func (e *Engine) applyAction(adapter ports.StrategyAdapter, action domain.Action, tick domain.TradeTick, adjusted time.Time) {
	switch action.Kind {
	case domain.ActionPlaceBuy:
		id := e.emulator.PlaceLimitOrder(tick.Symbol, action.Price, action.Size, true, adjusted)
		if id > 0 {
			slog.Debug("strategy placed buy order",
				"symbol", tick.Symbol,
				"strategy", adapter.Name(),
				"price", action.Price,
				"size", action.Size,
				"order_id", id,
			)
		}
	case domain.ActionPlaceSell:
		e.emulator.PlaceLimitOrder(tick.Symbol, action.Price, action.Size, false, adjusted)
	case domain.ActionReplaceBuy:
		if id, ok := e.emulator.FindBySymbol(tick.Symbol); ok {
			e.emulator.RepositionOrder(id, action.NewPrice, adjusted)
		}
	case domain.ActionCancelOrder:
		e.emulator.CancelOrder(action.OrderID)
	case domain.ActionDetectSignal:
		slog.Debug("strategy signal", "strategy", adapter.Name(), "message", action.Message)
	}
}

// emulateFills runs the probabilistic fill pass and notifies
// strategies about buy orders that disappeared: a vanished buy is a
// completed fill, and a returned PlaceSell is submitted immediately.
func (e *Engine) emulateFills(tick domain.TradeTick, adjusted time.Time) {
	before := e.emulator.ActiveOrders()

	e.emulator.ProcessTick(tick, e.metrics, e.rng)

	after := make(map[uint64]struct{}, e.emulator.ActiveCount())
	for _, o := range e.emulator.ActiveOrders() {
		after[o.ID] = struct{}{}
	}

	for _, o := range before {
		if !o.IsBuy {
			continue
		}
		if _, alive := after[o.ID]; alive {
			continue
		}
		for _, adapter := range e.strategies {
			action, ok := adapter.OnBuyFilled(o.Price, o.Size)
			if !ok {
				continue
			}
			if action.Kind == domain.ActionPlaceSell {
				e.emulator.PlaceLimitOrder(tick.Symbol, action.Price, action.Size, false, adjusted)
			}
		}
	}
}

// Book returns the reconstructed book for a symbol, if the run has
// seen it.
func (e *Engine) Book(symbol string) (*orderbook.Book, bool) {
	b, ok := e.books[symbol]
	return b, ok
}

// Market returns the last-observed market state.
func (e *Engine) Market() domain.MarketState { return e.market }

// Metrics exposes the running accumulator, mainly for tests.
func (e *Engine) Metrics() *domain.BacktestMetrics { return e.metrics }

func (e *Engine) bookFor(symbol string) *orderbook.Book {
	if b, ok := e.books[symbol]; ok {
		return b
	}
	b := orderbook.New(symbol)
	e.books[symbol] = b
	return b
}

func seedLabel(seed *int64) string {
	if seed == nil {
		return "random"
	}
	return fmt.Sprintf("%d", *seed)
}
