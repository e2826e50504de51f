package sim

// ExecutionMode selects where orders go. The simulation core only
// ever runs in Emulator mode; Real exists so a misconfiguration can be
// detected and refused.
type ExecutionMode string

const (
	ModeEmulator ExecutionMode = "EMULATOR"
	ModeReal     ExecutionMode = "REAL"
)

// MsRange is an inclusive [Min, Max] millisecond range drawn from the
// run's RNG.
type MsRange struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

// Settings is the immutable per-run configuration. Cloned with a
// derived seed when spawning Monte Carlo children.
type Settings struct {
	TickIntervalMs          int64         `yaml:"tick_interval_ms"`
	LatencyMsRange          MsRange       `yaml:"latency_ms"`
	SlippageSatoshi         int64         `yaml:"slippage_satoshi"` // reserved, not consumed by fill logic
	RandomSeed              *int64        `yaml:"random_seed"`      // nil = time-based, non-reproducible
	ExecutionDelayMsRange   MsRange       `yaml:"execution_delay_ms"`
	RepositionDelayMsRange  MsRange       `yaml:"reposition_delay_ms"`
	RecalculationIntervalMs int64         `yaml:"recalculation_interval_ms"`
	MissedTradeProbability  float64       `yaml:"missed_trade_probability"`
	Mode                    ExecutionMode `yaml:"mode"`
	EnforceEmulatorMode     bool          `yaml:"enforce_emulator_mode"`
}

// DefaultSettings: 2ms ticks, 10-20ms network lag, 50ms strategy
// recalculation and the mode guard enabled.
func DefaultSettings() Settings {
	return Settings{
		TickIntervalMs:          2,
		LatencyMsRange:          MsRange{Min: 10, Max: 20},
		SlippageSatoshi:         0,
		RandomSeed:              nil,
		ExecutionDelayMsRange:   MsRange{Min: 10, Max: 20},
		RepositionDelayMsRange:  MsRange{Min: 10, Max: 20},
		RecalculationIntervalMs: 50,
		MissedTradeProbability:  0,
		Mode:                    ModeEmulator,
		EnforceEmulatorMode:     true,
	}
}

// WithSeed returns a copy with an explicit seed.
func (s Settings) WithSeed(seed int64) Settings {
	s.RandomSeed = &seed
	return s
}

// EmulatorSettings controls the probabilistic fill model.
type EmulatorSettings struct {
	FillProbability float64 `yaml:"fill_probability"` // chance a marketable touch fills at all
	SlippagePercent float64 `yaml:"slippage_percent"` // applied against the order's side
	MaxActiveOrders int     `yaml:"max_active_orders"`
}

// DefaultEmulatorSettings: 95% fill on touch, 0.1% slippage, 30-order
// cap mirroring a typical retail bot's exchange-imposed limit.
func DefaultEmulatorSettings() EmulatorSettings {
	return EmulatorSettings{
		FillProbability: 0.95,
		SlippagePercent: 0.1,
		MaxActiveOrders: 30,
	}
}
