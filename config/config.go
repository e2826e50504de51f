// Package config loads the YAML configuration file with optional .env
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/avolkov/backsim/internal/sim"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration of a backtest run.
type Config struct {
	Backtest sim.Settings         `yaml:"backtest"`
	Emulator sim.EmulatorSettings `yaml:"emulator"`
	Filters  sim.StreamFilters    `yaml:"filters"`
	Storage  StorageConfig        `yaml:"storage"`
	Log      LogConfig            `yaml:"log"`
}

// StorageConfig controls where run results are persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // path to the SQLite file, or ":memory:"
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file at path and the .env file if one exists.
// Env values override YAML for the keys they cover. A missing YAML
// file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Backtest: sim.DefaultSettings(),
		Emulator: sim.DefaultEmulatorSettings(),
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	case os.IsNotExist(err):
		// run on defaults
	default:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides takes precedence over the YAML values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("BACKSIM_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("BACKSIM_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Backtest.RandomSeed = &seed
		}
	}
}

func setDefaults(cfg *Config) {
	if cfg.Backtest.TickIntervalMs <= 0 {
		cfg.Backtest.TickIntervalMs = 2
	}
	if cfg.Backtest.RecalculationIntervalMs <= 0 {
		cfg.Backtest.RecalculationIntervalMs = 50
	}
	if cfg.Backtest.Mode == "" {
		cfg.Backtest.Mode = sim.ModeEmulator
	}
	if cfg.Emulator.FillProbability <= 0 {
		cfg.Emulator.FillProbability = 0.95
	}
	if cfg.Emulator.MaxActiveOrders <= 0 {
		cfg.Emulator.MaxActiveOrders = 30
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "backsim.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
