package binfile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avolkov/backsim/internal/domain"
	"golang.org/x/time/rate"
)

// Loader implements ports.TickLoader over a set of .bin files with an
// optional [Start, End] window. Files whose trades all fall outside
// the window produce an error: an empty time-filtered set is a data
// problem the caller must see, not an empty run.
type Loader struct {
	Paths []string
	Start time.Time // zero = unbounded
	End   time.Time // zero = unbounded
}

// NewLoader creates a loader without a time window.
func NewLoader(paths ...string) *Loader {
	return &Loader{Paths: paths}
}

// WithWindow restricts loading to [start, end].
func (l *Loader) WithWindow(start, end time.Time) *Loader {
	l.Start, l.End = start, end
	return l
}

// LoadStreams reads every file into a per-symbol stream.
func (l *Loader) LoadStreams(ctx context.Context) ([]*domain.TradeStream, error) {
	if len(l.Paths) == 0 {
		return nil, fmt.Errorf("binfile.LoadStreams: no files given")
	}

	streams := make([]*domain.TradeStream, 0, len(l.Paths))
	for _, path := range l.Paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		stream, err := l.loadOne(path)
		if err != nil {
			return nil, err
		}
		streams = append(streams, stream)

		slog.Info("loaded trade stream",
			"file", path,
			"symbol", stream.Symbol,
			"ticks", len(stream.Trades),
		)
	}
	return streams, nil
}

func (l *Loader) loadOne(path string) (*domain.TradeStream, error) {
	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	ticks, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if !l.Start.IsZero() || !l.End.IsZero() {
		filtered := ticks[:0]
		for _, t := range ticks {
			if !l.Start.IsZero() && t.Timestamp.Before(l.Start) {
				continue
			}
			if !l.End.IsZero() && t.Timestamp.After(l.End) {
				continue
			}
			filtered = append(filtered, t)
		}
		ticks = filtered
	}

	if len(ticks) == 0 {
		return nil, fmt.Errorf("binfile.LoadStreams: %s: no trades in the requested time range", path)
	}

	return domain.NewTradeStream(r.Symbol(), ticks), nil
}

// Player re-emits a stream's ticks in real time, throttled to
// TicksPerSecond. Useful for feeding downstream consumers at a
// realistic pace instead of as fast as the disk allows.
type Player struct {
	TicksPerSecond float64
}

// Play invokes fn for every tick, waiting on the rate limiter between
// emissions. Stops early when the context is cancelled or fn errors.
func (p Player) Play(ctx context.Context, stream *domain.TradeStream, fn func(domain.TradeTick) error) error {
	tps := p.TicksPerSecond
	if tps <= 0 {
		tps = 1000
	}
	limiter := rate.NewLimiter(rate.Limit(tps), 1)

	stream.Reset()
	for {
		tick, ok := stream.Next()
		if !ok {
			return nil
		}
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("binfile.Play: %w", err)
		}
		if err := fn(tick); err != nil {
			return fmt.Errorf("binfile.Play: %w", err)
		}
	}
}
