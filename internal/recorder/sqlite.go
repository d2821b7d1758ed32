package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"tradingdata/internal/provider"
)

// SQLite persists series points, one row per (origin, stock, time).
// Re-recording a point overwrites its prices and batch.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLite opens (or creates) the database at path and runs migrations.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	r := &SQLite{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS series_points (
			origin      TEXT    NOT NULL,
			stock_name  TEXT    NOT NULL,
			ts          INTEGER NOT NULL,
			open        REAL    NOT NULL,
			high        REAL    NOT NULL,
			low         REAL    NOT NULL,
			close       REAL    NOT NULL,
			batch_id    TEXT    NOT NULL,
			recorded_at INTEGER NOT NULL,
			PRIMARY KEY (origin, stock_name, ts)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_series_batch ON series_points(batch_id)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", stmtHead(s), err)
		}
	}
	return nil
}

func stmtHead(s string) string {
	return s[:min(len(s), 40)]
}

const upsertPoint = `INSERT INTO series_points
	(origin, stock_name, ts, open, high, low, close, batch_id, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(origin, stock_name, ts) DO UPDATE SET
		open = excluded.open,
		high = excluded.high,
		low = excluded.low,
		close = excluded.close,
		batch_id = excluded.batch_id,
		recorded_at = excluded.recorded_at`

// RecordSeries writes every point of data in one transaction.
func (r *SQLite) RecordSeries(ctx context.Context, batchID string, data []provider.TradingData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertPoint)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, d := range data {
		for _, v := range d.Values {
			if _, err := stmt.ExecContext(ctx, d.Origin, d.StockName, v.DateTime.UnixMilli(),
				v.Open, v.High, v.Low, v.Close, batchID, now); err != nil {
				return fmt.Errorf("record %s %s: %w", d.Origin, d.StockName, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadSeries reads back a stored series, oldest first, with times in UTC.
func (r *SQLite) LoadSeries(ctx context.Context, origin, stockName string) (provider.TradingData, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ts, open, high, low, close FROM series_points
		 WHERE origin = ? AND stock_name = ? ORDER BY ts`, origin, stockName)
	if err != nil {
		return provider.TradingData{}, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	out := provider.TradingData{Origin: origin, StockName: stockName, Values: []provider.TradingDataItem{}}
	for rows.Next() {
		var (
			ms int64
			it provider.TradingDataItem
		)
		if err := rows.Scan(&ms, &it.Open, &it.High, &it.Low, &it.Close); err != nil {
			return provider.TradingData{}, fmt.Errorf("scan: %w", err)
		}
		it.DateTime = time.UnixMilli(ms).UTC()
		out.Values = append(out.Values, it)
	}
	return out, rows.Err()
}

func (r *SQLite) Close() error {
	return r.db.Close()
}
