package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gamma-omg/quantlab/internal/market"
)

// WriteBars upserts bars for symbol in a single transaction.
func (d *DB) WriteBars(ctx context.Context, symbol string, bars []market.Bar) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlite prepare bars: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, b.Timestamp, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("sqlite insert bar: %w", err)
		}
	}

	return tx.Commit()
}

// ReadBars returns bars for symbol with timestamps in [start, end], oldest first.
func (d *DB) ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC
	`, symbol, start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	var bars []market.Bar
	for rows.Next() {
		var b market.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan bar: %w", err)
		}
		bars = append(bars, b)
	}

	return bars, rows.Err()
}

func (d *DB) lastBar(ctx context.Context, symbol string) (market.Bar, bool, error) {
	var b market.Bar
	err := d.db.QueryRowContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM bars
		WHERE symbol = ?
		ORDER BY ts DESC
		LIMIT 1
	`, symbol).Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume)
	if err != nil {
		if isNoRows(err) {
			return market.Bar{}, false, nil
		}
		return market.Bar{}, false, fmt.Errorf("sqlite query last bar: %w", err)
	}

	return b, true, nil
}

func (d *DB) recordFetch(ctx context.Context, symbol string, start, end time.Time) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO bar_fetches (symbol, start_ts, end_ts) VALUES (?, ?, ?)
	`, symbol, start.UnixNano(), end.UnixNano())
	if err != nil {
		return fmt.Errorf("sqlite record fetch: %w", err)
	}

	return nil
}

// covered reports whether an earlier fetch spanned [start, end].
func (d *DB) covered(ctx context.Context, symbol string, start, end time.Time) (bool, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bar_fetches
		WHERE symbol = ? AND start_ts <= ? AND end_ts >= ?
	`, symbol, start.UnixNano(), end.UnixNano()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite query fetches: %w", err)
	}

	return n > 0, nil
}

// BarSource serves bars that were previously stored in the database.
type BarSource struct {
	log *slog.Logger
	db  *DB
}

func NewBarSource(log *slog.Logger, db *DB) *BarSource {
	return &BarSource{log: log, db: db}
}

func (s *BarSource) GetBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	bars, err := s.db.ReadBars(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s bars: %w", symbol, err)
	}

	s.log.Debug("bars loaded", slog.String("symbol", symbol), slog.Int("count", len(bars)))
	return bars, nil
}

// GetLatestQuote quotes the close of the newest stored bar with zero spread.
func (s *BarSource) GetLatestQuote(ctx context.Context, symbol string) (market.Quote, error) {
	b, ok, err := s.db.lastBar(ctx, symbol)
	if err != nil {
		return market.Quote{}, err
	}
	if !ok {
		return market.Quote{}, fmt.Errorf("%w: no stored bars for %s", market.ErrNoQuote, symbol)
	}

	return market.Quote{Symbol: symbol, Time: b.Time(), BidPrice: b.Close, AskPrice: b.Close}, nil
}

func (s *BarSource) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
