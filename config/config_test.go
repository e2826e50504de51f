package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/avolkov/backsim/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
backtest:
  tick_interval_ms: 5
  latency_ms:
    min: 1
    max: 3
  recalculation_interval_ms: 100
  random_seed: 42
  mode: EMULATOR
  enforce_emulator_mode: true
emulator:
  fill_probability: 0.8
  slippage_percent: 0.2
  max_active_orders: 10
filters:
  white_list: [BTCUSDT]
  quote_asset: USDT
storage:
  dsn: ":memory:"
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(5), cfg.Backtest.TickIntervalMs)
	assert.Equal(t, int64(1), cfg.Backtest.LatencyMsRange.Min)
	assert.Equal(t, int64(3), cfg.Backtest.LatencyMsRange.Max)
	require.NotNil(t, cfg.Backtest.RandomSeed)
	assert.Equal(t, int64(42), *cfg.Backtest.RandomSeed)
	assert.Equal(t, sim.ModeEmulator, cfg.Backtest.Mode)
	assert.True(t, cfg.Backtest.EnforceEmulatorMode)

	assert.InDelta(t, 0.8, cfg.Emulator.FillProbability, 1e-9)
	assert.Equal(t, 10, cfg.Emulator.MaxActiveOrders)

	assert.Equal(t, []string{"BTCUSDT"}, cfg.Filters.WhiteList)
	assert.Equal(t, "USDT", cfg.Filters.QuoteAsset)

	assert.Equal(t, ":memory:", cfg.Storage.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, int64(2), cfg.Backtest.TickIntervalMs)
	assert.Equal(t, int64(50), cfg.Backtest.RecalculationIntervalMs)
	assert.Equal(t, sim.ModeEmulator, cfg.Backtest.Mode)
	assert.True(t, cfg.Backtest.EnforceEmulatorMode)
	assert.Nil(t, cfg.Backtest.RandomSeed)
	assert.InDelta(t, 0.95, cfg.Emulator.FillProbability, 1e-9)
	assert.Equal(t, 30, cfg.Emulator.MaxActiveOrders)
	assert.Equal(t, "backsim.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: warn
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, int64(2), cfg.Backtest.TickIntervalMs)
	assert.InDelta(t, 0.95, cfg.Emulator.FillProbability, 1e-9)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
log:
  level: info
storage:
  dsn: from-yaml.db
`)

	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("BACKSIM_DSN", "from-env.db")
	t.Setenv("BACKSIM_SEED", "1234")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "from-env.db", cfg.Storage.DSN)
	require.NotNil(t, cfg.Backtest.RandomSeed)
	assert.Equal(t, int64(1234), *cfg.Backtest.RandomSeed)
}

func TestLoad_InvalidYAMLFails(t *testing.T) {
	path := writeConfig(t, "backtest: [not a map")

	_, err := Load(path)
	assert.Error(t, err)
}
