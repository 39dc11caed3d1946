package agent

import (
	"context"
	"errors"
	"time"

	"github.com/gamma-omg/quantlab/internal/market"
)

var (
	ErrNoData   = errors.New("no market data")
	ErrNoSignal = errors.New("no signal available")
)

type BarSource interface {
	GetBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error)
}

type QuoteSource interface {
	GetLatestQuote(ctx context.Context, symbol string) (market.Quote, error)
}

type sharesScaler interface {
	GetShares(price float64, confidence float64) int64
}

// lookback returns the [start, end] window covering days calendar days up to end.
func lookback(end time.Time, days int) (time.Time, time.Time) {
	return end.AddDate(0, 0, -days), end
}
