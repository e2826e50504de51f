package domain

import "time"

// Side is the taker side of a historical trade.
type Side string

const (
	SideBuy  Side = "BUY"  // taker buy, hit the ask
	SideSell Side = "SELL" // taker sell, hit the bid
)

// SideFromBool maps the .bin side flag to a Side.
func SideFromBool(b bool) Side {
	if b {
		return SideBuy
	}
	return SideSell
}

// IsBuy reports whether the side is a taker buy.
func (s Side) IsBuy() bool { return s == SideBuy }

// TradeTick is one historical trade event. Immutable once created;
// produced by a loader, consumed read-only by the engine.
type TradeTick struct {
	Timestamp time.Time
	Symbol    string
	Price     float64
	Volume    float64
	Side      Side
	TradeID   string
	BestBid   float64 // 0 = unknown
	BestAsk   float64 // 0 = unknown
}

// TradeStream is a per-symbol cursor over an ordered tick sequence.
// Owned exclusively by one engine for the duration of a run.
type TradeStream struct {
	Symbol string
	Trades []TradeTick
	cursor int
	done   bool
}

// NewTradeStream creates a stream positioned at the first tick.
func NewTradeStream(symbol string, trades []TradeTick) *TradeStream {
	return &TradeStream{Symbol: symbol, Trades: trades, done: len(trades) == 0}
}

// HasMore reports whether the cursor still points at a tick.
func (s *TradeStream) HasMore() bool {
	return !s.done && s.cursor < len(s.Trades)
}

// Peek returns the tick under the cursor without advancing.
func (s *TradeStream) Peek() (TradeTick, bool) {
	if !s.HasMore() {
		return TradeTick{}, false
	}
	return s.Trades[s.cursor], true
}

// Next returns the tick under the cursor and advances past it.
func (s *TradeStream) Next() (TradeTick, bool) {
	tick, ok := s.Peek()
	if !ok {
		return TradeTick{}, false
	}
	s.cursor++
	if s.cursor >= len(s.Trades) {
		s.done = true
	}
	return tick, true
}

// Reset rewinds the cursor to the first tick.
func (s *TradeStream) Reset() {
	s.cursor = 0
	s.done = len(s.Trades) == 0
}

// Clone returns an independent stream over the same tick slice,
// rewound to the start. Ticks are immutable so the slice is shared.
func (s *TradeStream) Clone() *TradeStream {
	return NewTradeStream(s.Symbol, s.Trades)
}

// TotalVolume sums the volume of every tick in the stream.
func (s *TradeStream) TotalVolume() float64 {
	var total float64
	for _, t := range s.Trades {
		total += t.Volume
	}
	return total
}

// MarketState is the last-observed top of book, refreshed from the
// tick's side: a taker buy touched the ask, a taker sell the bid.
type MarketState struct {
	Symbol       string
	CurrentPrice float64
	BestBid      float64
	BestAsk      float64
	LastUpdate   time.Time
}

// UpdateFromTick refreshes price, clock and the touched side.
func (m *MarketState) UpdateFromTick(tick TradeTick) {
	m.Symbol = tick.Symbol
	m.CurrentPrice = tick.Price
	m.LastUpdate = tick.Timestamp

	if tick.Side.IsBuy() {
		m.BestAsk = tick.Price
	} else {
		m.BestBid = tick.Price
	}
}
