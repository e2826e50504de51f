package binfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/avolkov/backsim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTicks(symbol string, n int) []domain.TradeTick {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ticks := make([]domain.TradeTick, n)
	for i := range ticks {
		side := domain.SideSell
		if i%2 == 0 {
			side = domain.SideBuy
		}
		ticks[i] = domain.TradeTick{
			Timestamp: start.Add(time.Duration(i) * time.Second),
			Symbol:    symbol,
			Price:     50000.0 + float64(i),
			Volume:    1.5,
			Side:      side,
		}
	}
	return ticks
}

func writeBinFile(t *testing.T, path string, ticks []domain.TradeTick) {
	t.Helper()
	w, err := CreateWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteAll(ticks))
	require.NoError(t, w.Close())
}

func TestSymbolFromPath(t *testing.T) {
	assert.Equal(t, "BTCUSDT", SymbolFromPath("/data/BTCUSDT_2024-03.bin"))
	assert.Equal(t, "ETHUSDT", SymbolFromPath("ETHUSDT.bin"))
	assert.Equal(t, "SOLUSDT", SymbolFromPath("SOLUSDT_a_b_c.bin"))
}

func TestReadWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BTCUSDT_test.bin")
	want := sampleTicks("BTCUSDT", 5)
	writeBinFile(t, path, want)

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.Equal(t, "BTCUSDT", r.Symbol())
	for i := range got {
		assert.Equal(t, want[i].Timestamp, got[i].Timestamp, "tick %d", i)
		assert.Equal(t, want[i].Price, got[i].Price, "tick %d", i)
		assert.Equal(t, want[i].Side, got[i].Side, "tick %d", i)
		assert.Equal(t, "BTCUSDT", got[i].Symbol)
	}
}

func TestWriteTrade_SideFlagOverwritesVolumeByte(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BTCUSDT_flag.bin")
	tick := sampleTicks("BTCUSDT", 1)[0]
	tick.Side = domain.SideBuy
	writeBinFile(t, path, []domain.TradeTick{tick})

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, 24)
	assert.Equal(t, byte(1), raw[23])

	// The reader keeps the flag byte inside the volume decoding, so a
	// small positive volume survives the round trip approximately.
	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Greater(t, got[0].Volume, 0.0)
}

func TestReadAll_DropsTrailingPartialRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BTCUSDT_trunc.bin")
	writeBinFile(t, path, sampleTicks("BTCUSDT", 3))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:len(raw)-7], 0o644))

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadAll()
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLoader_LoadStreams(t *testing.T) {
	dir := t.TempDir()
	btc := filepath.Join(dir, "BTCUSDT_1.bin")
	eth := filepath.Join(dir, "ETHUSDT_1.bin")
	writeBinFile(t, btc, sampleTicks("BTCUSDT", 4))
	writeBinFile(t, eth, sampleTicks("ETHUSDT", 2))

	streams, err := NewLoader(btc, eth).LoadStreams(context.Background())
	require.NoError(t, err)
	require.Len(t, streams, 2)

	assert.Equal(t, "BTCUSDT", streams[0].Symbol)
	assert.Len(t, streams[0].Trades, 4)
	assert.Equal(t, "ETHUSDT", streams[1].Symbol)
	assert.Len(t, streams[1].Trades, 2)
}

func TestLoader_WindowFiltersTicks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "BTCUSDT_1.bin")
	ticks := sampleTicks("BTCUSDT", 10) // 1s apart from 10:00:00
	writeBinFile(t, path, ticks)

	start := ticks[3].Timestamp
	end := ticks[6].Timestamp

	streams, err := NewLoader(path).WithWindow(start, end).LoadStreams(context.Background())
	require.NoError(t, err)
	require.Len(t, streams, 1)
	assert.Len(t, streams[0].Trades, 4) // inclusive on both ends
}

func TestLoader_EmptyWindowIsAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "BTCUSDT_1.bin")
	writeBinFile(t, path, sampleTicks("BTCUSDT", 3))

	far := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := NewLoader(path).WithWindow(far, far.Add(time.Hour)).LoadStreams(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no trades in the requested time range")
}

func TestLoader_NoFilesIsAnError(t *testing.T) {
	_, err := NewLoader().LoadStreams(context.Background())
	assert.Error(t, err)
}

func TestPlayer_EmitsEveryTickInOrder(t *testing.T) {
	stream := domain.NewTradeStream("BTCUSDT", sampleTicks("BTCUSDT", 5))

	var prices []float64
	p := Player{TicksPerSecond: 100000} // effectively unthrottled
	err := p.Play(context.Background(), stream, func(tick domain.TradeTick) error {
		prices = append(prices, tick.Price)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, prices, 5)
	for i := 1; i < len(prices); i++ {
		assert.Greater(t, prices[i], prices[i-1])
	}
}

func TestPlayer_StopsOnCancelledContext(t *testing.T) {
	stream := domain.NewTradeStream("BTCUSDT", sampleTicks("BTCUSDT", 100))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Player{TicksPerSecond: 1}
	err := p.Play(ctx, stream, func(domain.TradeTick) error { return nil })
	assert.Error(t, err)
}
