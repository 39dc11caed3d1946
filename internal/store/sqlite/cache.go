package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gamma-omg/quantlab/internal/market"
)

type upstream interface {
	GetBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error)
	GetLatestQuote(ctx context.Context, symbol string) (market.Quote, error)
	Ping(ctx context.Context) error
}

// Cache stores bars fetched from an upstream source and answers repeated
// requests for an already fetched window from the database.
type Cache struct {
	log      *slog.Logger
	db       *DB
	upstream upstream
}

func NewCache(log *slog.Logger, db *DB, src upstream) *Cache {
	return &Cache{log: log, db: db, upstream: src}
}

func (c *Cache) GetBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	hit, err := c.db.covered(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if hit {
		c.log.Debug("bar cache hit", slog.String("symbol", symbol))
		return c.db.ReadBars(ctx, symbol, start, end)
	}

	bars, err := c.upstream.GetBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	if len(bars) == 0 {
		c.log.Debug("empty window not cached", slog.String("symbol", symbol))
		return bars, nil
	}

	if err := c.db.WriteBars(ctx, symbol, bars); err != nil {
		return nil, fmt.Errorf("failed to cache %s bars: %w", symbol, err)
	}
	if err := c.db.recordFetch(ctx, symbol, start, end); err != nil {
		return nil, err
	}

	return bars, nil
}

func (c *Cache) GetLatestQuote(ctx context.Context, symbol string) (market.Quote, error) {
	return c.upstream.GetLatestQuote(ctx, symbol)
}

func (c *Cache) Ping(ctx context.Context) error {
	return errors.Join(c.db.Ping(ctx), c.upstream.Ping(ctx))
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
