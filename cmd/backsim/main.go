package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avolkov/backsim/config"
	"github.com/avolkov/backsim/internal/adapters/binfile"
	"github.com/avolkov/backsim/internal/adapters/report"
	"github.com/avolkov/backsim/internal/adapters/storage"
	"github.com/avolkov/backsim/internal/ports"
	"github.com/avolkov/backsim/internal/sim"
	"github.com/avolkov/backsim/internal/strategy"
	"github.com/google/uuid"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	strategyName := flag.String("strategy", "momentum", "strategy to run (momentum|noop)")
	monteRuns := flag.Int("monte", 1, "number of Monte Carlo runs (1 = single run)")
	seed := flag.Int64("seed", 0, "random seed (overrides config; 0 = use config)")
	from := flag.String("from", "", "replay window start, RFC3339 (inclusive)")
	to := flag.String("to", "", "replay window end, RFC3339 (inclusive)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	if flag.NArg() == 0 {
		slog.Error("no trade data files given; usage: backsim [flags] file.bin ...")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *seed != 0 {
		cfg.Backtest = cfg.Backtest.WithSeed(*seed)
	}
	setupLogger(cfg.Log)

	slog.Info("backsim starting",
		"config", *configPath,
		"strategy", *strategyName,
		"files", flag.NArg(),
		"monte", *monteRuns,
	)

	build, ok := strategy.NewRegistry().Get(*strategyName)
	if !ok {
		slog.Error("unknown strategy", "name", *strategyName)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	binLoader := binfile.NewLoader(flag.Args()...)
	if window, ok := parseWindow(*from, *to); ok {
		binLoader = binLoader.WithWindow(window.start, window.end)
	}

	var loader ports.TickLoader = binLoader
	streams, err := loader.LoadStreams(ctx)
	if err != nil {
		slog.Error("failed to load trade data", "err", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	reporter := report.NewConsole()

	if *monteRuns > 1 {
		runMonteCarlo(ctx, cfg, streams, build, *strategyName, *monteRuns, reporter, store)
		return
	}

	engine := sim.NewEngine(cfg.Backtest, cfg.Emulator)
	engine.SetFilters(cfg.Filters)
	for _, stream := range streams {
		engine.AddStream(stream)
	}
	engine.AddStrategy(build())

	result, err := engine.Run(ctx)
	if err != nil {
		slog.Error("backtest failed", "err", err)
		os.Exit(1)
	}

	reporter.PrintResult(result)

	rec := ports.RunRecord{
		RunID:     uuid.NewString(),
		Strategy:  *strategyName,
		CreatedAt: time.Now().UTC(),
		Result:    result,
	}
	if cfg.Backtest.RandomSeed != nil {
		rec.Seed, rec.SeedSet = *cfg.Backtest.RandomSeed, true
	}
	if err := store.SaveRun(ctx, rec); err != nil {
		slog.Warn("failed to persist run", "err", err)
	}

	slog.Info("backsim finished", "run_id", rec.RunID, "pnl", result.TotalPnL)
}

type replayWindow struct {
	start, end time.Time
}

func parseWindow(from, to string) (replayWindow, bool) {
	if from == "" && to == "" {
		return replayWindow{}, false
	}

	w := replayWindow{start: time.Time{}, end: time.Now().UTC()}
	if from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			slog.Error("invalid -from value", "err", err, "value", from)
			os.Exit(1)
		}
		w.start = t
	}
	if to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			slog.Error("invalid -to value", "err", err, "value", to)
			os.Exit(1)
		}
		w.end = t
	}
	return w, true
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
