package sim

import (
	"strings"
	"time"

	"github.com/avolkov/backsim/internal/domain"
)

// deltaWindows are the lookbacks strategies receive deltas for.
var (
	window5m  = 5 * time.Minute
	window15m = 15 * time.Minute
	window1h  = time.Hour
	window3h  = 3 * time.Hour
)

type pricePoint struct {
	at    time.Time
	price float64
}

// DeltaCalculator keeps a rolling per-symbol price history and derives
// percentage deltas over fixed windows. History older than the longest
// window is pruned as ticks arrive.
type DeltaCalculator struct {
	history map[string][]pricePoint
	symbols []string // insertion order, for deterministic market delta
}

// NewDeltaCalculator returns an empty calculator.
func NewDeltaCalculator() *DeltaCalculator {
	return &DeltaCalculator{history: make(map[string][]pricePoint)}
}

// Update appends the tick's price to its symbol history and prunes
// entries older than the 3h window.
func (d *DeltaCalculator) Update(tick domain.TradeTick) {
	if _, ok := d.history[tick.Symbol]; !ok {
		d.symbols = append(d.symbols, tick.Symbol)
	}

	points := append(d.history[tick.Symbol], pricePoint{at: tick.Timestamp, price: tick.Price})

	cutoff := tick.Timestamp.Add(-window3h)
	start := 0
	for start < len(points)-1 && points[start].at.Before(cutoff) {
		start++
	}
	d.history[tick.Symbol] = points[start:]
}

// Calculate derives the deltas for a symbol at the given time. BTC
// deltas come from the first loaded symbol with a BTC prefix and are
// zero when none exists.
func (d *DeltaCalculator) Calculate(symbol string, price float64, now time.Time) domain.Deltas {
	deltas := domain.Deltas{
		Delta5m:   d.deltaOver(symbol, price, now, window5m),
		Delta15m:  d.deltaOver(symbol, price, now, window15m),
		DeltaHour: d.deltaOver(symbol, price, now, window1h),
		Delta3h:   d.deltaOver(symbol, price, now, window3h),
	}

	// Market delta: average 15m delta across all tracked symbols.
	var sum float64
	var n int
	for _, sym := range d.symbols {
		if last, ok := d.lastPrice(sym); ok {
			sum += d.deltaOver(sym, last, now, window15m)
			n++
		}
	}
	if n > 0 {
		deltas.Market = sum / float64(n)
	}

	for _, sym := range d.symbols {
		if strings.HasPrefix(sym, "BTC") {
			if last, ok := d.lastPrice(sym); ok {
				deltas.BTC = d.deltaOver(sym, last, now, window1h)
				deltas.BTC5m = d.deltaOver(sym, last, now, window5m)
			}
			break
		}
	}

	return deltas
}

// deltaOver is the percent move from the oldest price inside the
// window to the given price. Zero when there is no history.
func (d *DeltaCalculator) deltaOver(symbol string, price float64, now time.Time, window time.Duration) float64 {
	points := d.history[symbol]
	if len(points) == 0 {
		return 0
	}

	cutoff := now.Add(-window)
	ref := points[0]
	for _, p := range points {
		if !p.at.Before(cutoff) {
			ref = p
			break
		}
		ref = p
	}

	if ref.price == 0 {
		return 0
	}
	return (price - ref.price) / ref.price * 100
}

func (d *DeltaCalculator) lastPrice(symbol string) (float64, bool) {
	points := d.history[symbol]
	if len(points) == 0 {
		return 0, false
	}
	return points[len(points)-1].price, true
}
