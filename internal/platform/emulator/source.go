package emulator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gamma-omg/quantlab/internal/config"
	"github.com/gamma-omg/quantlab/internal/market"
)

// CSVSource replays historical bars from per-symbol CSV files with the
// header timestamp,open,high,low,close,volume and unix-second timestamps.
type CSVSource struct {
	log  *slog.Logger
	data map[string]string
	last *lastBars
}

func NewCSVSource(log *slog.Logger, cfg config.CSV) (*CSVSource, error) {
	for symbol, path := range cfg.Data {
		if _, err := newBarReader(path); err != nil {
			return nil, fmt.Errorf("failed to open data for %s: %w", symbol, err)
		}
	}

	return &CSVSource{
		log:  log,
		data: cfg.Data,
		last: newLastBars(),
	}, nil
}

// GetBars returns the bars in [start, end] in file order.
func (s *CSVSource) GetBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	path, ok := s.data[symbol]
	if !ok {
		return nil, fmt.Errorf("unknown symbol: %s", symbol)
	}

	from, to := start.UnixNano(), end.UnixNano()
	rdr, err := newBarReaderWithFilter(path, func(b market.Bar) bool {
		return b.Timestamp >= from && b.Timestamp <= to
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bars reader: %w", err)
	}

	var bars []market.Bar
	for b := range rdr.Read(ctx) {
		if b.err != nil {
			return nil, fmt.Errorf("failed to read %s bars: %w", symbol, b.err)
		}
		bars = append(bars, b.bar)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := market.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("invalid %s data in %s: %w", symbol, path, err)
	}

	if len(bars) > 0 {
		s.last.Update(symbol, bars[len(bars)-1])
	}
	s.log.Debug("bars replayed", slog.String("symbol", symbol), slog.Int("count", len(bars)))

	return bars, nil
}

// GetLatestQuote quotes the close of the last replayed bar with zero spread.
// It fails with market.ErrNoQuote until GetBars has returned data for symbol.
func (s *CSVSource) GetLatestQuote(ctx context.Context, symbol string) (market.Quote, error) {
	bar, err := s.last.Get(symbol)
	if err != nil {
		return market.Quote{}, err
	}

	return market.Quote{
		Symbol:   symbol,
		Time:     bar.Time(),
		BidPrice: bar.Close,
		AskPrice: bar.Close,
	}, nil
}

func (s *CSVSource) Ping(ctx context.Context) error {
	return nil
}
