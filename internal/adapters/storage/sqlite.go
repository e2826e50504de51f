// Package storage persists run scorecards in SQLite (pure Go driver,
// no CGo). One row per run; Monte Carlo children share a batch id so a
// whole batch can be compared later.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avolkov/backsim/internal/domain"
	"github.com/avolkov/backsim/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id        TEXT PRIMARY KEY,
    batch_id      TEXT     NOT NULL DEFAULT '',
    strategy      TEXT     NOT NULL DEFAULT '',
    seed          INTEGER,
    created_at    DATETIME NOT NULL,
    total_pnl     REAL     NOT NULL DEFAULT 0,
    total_trades  INTEGER  NOT NULL DEFAULT 0,
    winning       INTEGER  NOT NULL DEFAULT 0,
    losing        INTEGER  NOT NULL DEFAULT 0,
    win_rate      REAL     NOT NULL DEFAULT 0,
    profit_factor REAL     NOT NULL DEFAULT 0,
    max_drawdown  REAL     NOT NULL DEFAULT 0,
    sharpe        REAL     NOT NULL DEFAULT 0,
    avg_profit    REAL     NOT NULL DEFAULT 0,
    avg_loss      REAL     NOT NULL DEFAULT 0,
    largest_win   REAL     NOT NULL DEFAULT 0,
    largest_loss  REAL     NOT NULL DEFAULT 0,
    fill_rate     REAL     NOT NULL DEFAULT 0,
    avg_trade_ms  REAL     NOT NULL DEFAULT 0,
    rating        REAL     NOT NULL DEFAULT 0,
    stars         INTEGER  NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_batch   ON runs(batch_id);
`

// timeLayout is fixed-width so stored timestamps order correctly
// under SQLite's lexicographic text comparison.
const timeLayout = "2006-01-02 15:04:05.000000000"

// SQLiteStore implements ports.ResultStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path and
// applies the schema. Use ":memory:" in tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SaveRun persists one run scorecard.
func (s *SQLiteStore) SaveRun(ctx context.Context, rec ports.RunRecord) error {
	var seed any
	if rec.SeedSet {
		seed = rec.Seed
	}

	r := rec.Result
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, batch_id, strategy, seed, created_at,
			total_pnl, total_trades, winning, losing, win_rate,
			profit_factor, max_drawdown, sharpe, avg_profit, avg_loss,
			largest_win, largest_loss, fill_rate, avg_trade_ms, rating, stars
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.BatchID, rec.Strategy, seed, rec.CreatedAt.UTC().Format(timeLayout),
		r.TotalPnL, r.TotalTrades, r.WinningTrades, r.LosingTrades, r.WinRate,
		r.ProfitFactor, r.MaxDrawdown, r.SharpeRatio, r.AverageProfit, r.AverageLoss,
		r.LargestWin, r.LargestLoss, r.FillRate, r.AvgTradeDurationMs,
		r.Rating.Overall, r.Rating.Stars,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: %w", err)
	}
	return nil
}

// ListRuns returns runs created inside [from, to], newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, from, to time.Time) ([]ports.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, batch_id, strategy, seed, created_at,
		       total_pnl, total_trades, winning, losing, win_rate,
		       profit_factor, max_drawdown, sharpe, avg_profit, avg_loss,
		       largest_win, largest_loss, fill_rate, avg_trade_ms, rating, stars
		FROM runs
		WHERE created_at BETWEEN ? AND ?
		ORDER BY created_at DESC`,
		from.UTC().Format(timeLayout), to.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: %w", err)
	}
	defer rows.Close()

	var recs []ports.RunRecord
	for rows.Next() {
		var rec ports.RunRecord
		var seed sql.NullInt64
		var createdAt string
		var rating domain.StrategyRating

		if err := rows.Scan(
			&rec.RunID, &rec.BatchID, &rec.Strategy, &seed, &createdAt,
			&rec.Result.TotalPnL, &rec.Result.TotalTrades, &rec.Result.WinningTrades,
			&rec.Result.LosingTrades, &rec.Result.WinRate,
			&rec.Result.ProfitFactor, &rec.Result.MaxDrawdown, &rec.Result.SharpeRatio,
			&rec.Result.AverageProfit, &rec.Result.AverageLoss,
			&rec.Result.LargestWin, &rec.Result.LargestLoss, &rec.Result.FillRate,
			&rec.Result.AvgTradeDurationMs, &rating.Overall, &rating.Stars,
		); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: scan: %w", err)
		}

		if seed.Valid {
			rec.Seed, rec.SeedSet = seed.Int64, true
		}
		if t, err := time.Parse(timeLayout, createdAt); err == nil {
			rec.CreatedAt = t.UTC()
		}
		rec.Result.Rating = rating
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.ListRuns: %w", err)
	}
	return recs, nil
}

// Close closes the database cleanly.
func (s *SQLiteStore) Close() error { return s.db.Close() }
