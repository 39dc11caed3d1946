package agent

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/gamma-omg/quantlab/internal/config"
	"github.com/gamma-omg/quantlab/internal/market"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func discardLog() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// sineBars oscillates around 100 so RSI swings through both extremes.
func sineBars(n, period int, amplitude float64) []market.Bar {
	bars := make([]market.Bar, n)
	prev := 100.0
	for i := range bars {
		c := 100 + amplitude*math.Sin(2*math.Pi*float64(i)/float64(period))
		bars[i] = market.Bar{
			Timestamp: t0.AddDate(0, 0, i).UnixNano(),
			Open:      prev,
			High:      max(prev, c) + 0.5,
			Low:       min(prev, c) - 0.5,
			Close:     c,
			Volume:    1000,
		}
		prev = c
	}
	return bars
}

func flatBars(n int, price float64) []market.Bar {
	bars := make([]market.Bar, n)
	for i := range bars {
		bars[i] = market.Bar{
			Timestamp: t0.AddDate(0, 0, i).UnixNano(),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
		}
	}
	return bars
}

func testConfig() config.Config {
	return config.Config{
		Strategy: config.Strategy{
			EMAPeriod:           20,
			RSIPeriod:           7,
			BBPeriod:            20,
			BBWidth:             2,
			RSIOversold:         30,
			RSIOverbought:       70,
			ConfidenceThreshold: 0.5,
			Warmup:              20,
			Sizing:              config.SizingFixed,
			MaxScale:            1,
		},
		Backtest: config.Backtest{
			Symbol:            "TEST",
			Days:              365,
			End:               t0.AddDate(1, 0, 0),
			StartingCapital:   1_000_000,
			TradeNotional:     50_000,
			LiquidateOnFinish: true,
			RiskFreeRate:      0.02,
			PeriodsPerYear:    252,
		},
		Sweep: config.Sweep{
			Workers: 4,
			TopN:    10,
		},
	}
}

type mockBarSource struct {
	bars  map[string][]market.Bar
	err   error
	calls atomic.Int32
	delay time.Duration
}

func (m *mockBarSource) GetBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.bars[symbol], nil
}

type mockQuoteSource struct {
	quote market.Quote
	err   error
}

func (m *mockQuoteSource) GetLatestQuote(ctx context.Context, symbol string) (market.Quote, error) {
	if m.err != nil {
		return market.Quote{}, m.err
	}
	q := m.quote
	q.Symbol = symbol
	return q, nil
}
