package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gamma-omg/quantlab/internal/config"
	"github.com/gamma-omg/quantlab/internal/market"
	"github.com/gamma-omg/quantlab/internal/platform/alpaca"
	"github.com/gamma-omg/quantlab/internal/platform/emulator"
	"github.com/gamma-omg/quantlab/internal/store/sqlite"
)

// DataSource provides historical bars and the latest quote for a symbol.
type DataSource interface {
	GetBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error)
	GetLatestQuote(ctx context.Context, symbol string) (market.Quote, error)
	Ping(ctx context.Context) error
}

// Create builds the data source described by cfg, optionally behind a SQLite
// bar cache and a resampler. The returned close function releases any
// resources held by the source.
func Create(log *slog.Logger, cfg config.Config) (DataSource, func() error, error) {
	src, closer, err := create(log, cfg)
	if err != nil {
		return nil, nil, err
	}

	if _, stored := cfg.SourceRef.Source.(config.SQLite); cfg.CacheDB != "" && !stored {
		db, err := sqlite.Open(cfg.CacheDB)
		if err != nil {
			return nil, nil, errors.Join(fmt.Errorf("failed to open bar cache: %w", err), closer())
		}
		src = sqlite.NewCache(log, db, src)
		inner := closer
		closer = func() error { return errors.Join(db.Close(), inner()) }
	}

	if cfg.Interval > 0 {
		src = &resampled{DataSource: src, interval: cfg.Interval}
	}

	return src, closer, nil
}

func create(log *slog.Logger, cfg config.Config) (DataSource, func() error, error) {
	nop := func() error { return nil }

	switch c := cfg.SourceRef.Source.(type) {
	case config.Alpaca:
		creds, err := config.LoadCredentials()
		if err != nil {
			return nil, nil, err
		}
		src, err := alpaca.NewAlpacaSource(log, c, creds)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create alpaca source: %w", err)
		}
		return src, nop, nil
	case config.CSV:
		src, err := emulator.NewCSVSource(log, c)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create csv source: %w", err)
		}
		return src, nop, nil
	case config.SQLite:
		db, err := sqlite.Open(c.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open bar store: %w", err)
		}
		return sqlite.NewBarSource(log, db), db.Close, nil
	default:
		return nil, nil, errors.New("unknown data source")
	}
}

// resampled merges source bars into bars spanning interval.
type resampled struct {
	DataSource
	interval time.Duration
}

func (r *resampled) GetBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	bars, err := r.DataSource.GetBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) < 2 {
		return bars, nil
	}

	agg := &market.IntervalAggregator{
		BarDuration: barDuration(bars),
		Interval:    r.interval,
	}
	return market.AggregateAll(agg, bars), nil
}

// barDuration infers the source resolution from the smallest gap between bars.
func barDuration(bars []market.Bar) time.Duration {
	var d time.Duration
	for i := 1; i < len(bars); i++ {
		gap := time.Duration(bars[i].Timestamp - bars[i-1].Timestamp)
		if gap > 0 && (d == 0 || gap < d) {
			d = gap
		}
	}

	return d
}
