package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB is a single-connection SQLite handle holding cached bars and sweep results.
type DB struct {
	db *sql.DB
}

func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func createSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS bars (
			symbol TEXT    NOT NULL,
			ts     INTEGER NOT NULL,
			open   REAL    NOT NULL,
			high   REAL    NOT NULL,
			low    REAL    NOT NULL,
			close  REAL    NOT NULL,
			volume INTEGER NOT NULL,
			PRIMARY KEY (symbol, ts)
		);

		CREATE TABLE IF NOT EXISTS bar_fetches (
			symbol   TEXT    NOT NULL,
			start_ts INTEGER NOT NULL,
			end_ts   INTEGER NOT NULL,
			PRIMARY KEY (symbol, start_ts, end_ts)
		);

		CREATE TABLE IF NOT EXISTS sweep_results (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id           TEXT    NOT NULL,
			symbol           TEXT    NOT NULL,
			days             INTEGER NOT NULL,
			confidence       REAL    NOT NULL,
			rsi_oversold     REAL    NOT NULL,
			rsi_overbought   REAL    NOT NULL,
			total_return_pct REAL    NOT NULL,
			sharpe_ratio     REAL,
			max_drawdown_pct REAL,
			profit_factor    REAL,
			total_trades     INTEGER NOT NULL,
			winning_trades   INTEGER NOT NULL,
			win_rate_pct     REAL    NOT NULL,
			error            TEXT    NOT NULL DEFAULT '',
			created_at       INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);

		CREATE INDEX IF NOT EXISTS sweep_results_run ON sweep_results (run_id);
	`)
	return err
}
