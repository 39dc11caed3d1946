package portfolio

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLedger struct {
	cash   decimal.Decimal
	shares int64
	trades []Trade
}

func (m *mockLedger) Cash() decimal.Decimal { return m.cash }
func (m *mockLedger) Shares() int64         { return m.shares }
func (m *mockLedger) Trades() []Trade       { return m.trades }

func valuations(values ...float64) []Valuation {
	out := make([]Valuation, len(values))
	for i, v := range values {
		out[i] = Valuation{Time: t0.Add(time.Duration(i) * 24 * time.Hour), Value: v}
	}
	return out
}

func TestCalculateMetrics_Cycles(t *testing.T) {
	p := newTestPortfolio(10000)
	require.True(t, p.ExecuteBuy(t0, 10, 100, 0.7, ""))
	require.True(t, p.ExecuteBuy(t0, 20, 100, 0.7, ""))
	require.True(t, p.ExecuteSell(t0, 25, 100, 0.7, ""))
	require.True(t, p.ExecuteSell(t0, 5, 100, 0.7, ""))

	m := CalculateMetrics(p, 5, decimal.NewFromInt(10000), nil, MetricsOptions{})

	assert.True(t, m.EndingCapital.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, 0.0, m.TotalReturnPct)
	assert.Equal(t, 4, m.TotalTrades)
	assert.Equal(t, 2, m.CompletedCycles)
	assert.Equal(t, 1, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.Equal(t, 50.0, m.WinRatePct)
	assert.InDelta(t, 1000, m.AvgWin, 1e-9)
	assert.InDelta(t, 1000, m.AvgLoss, 1e-9)
	require.NotNil(t, m.ProfitFactor)
	assert.InDelta(t, 1, *m.ProfitFactor, 1e-9)
	assert.True(t, m.RealizedPnL.IsZero())

	require.Len(t, m.Cycles, 2)
	assert.True(t, m.Cycles[0].Cost.Equal(decimal.NewFromInt(1500)))
	assert.True(t, m.Cycles[0].PnL.Equal(decimal.NewFromInt(1000)))
	assert.True(t, m.Cycles[1].Cost.Equal(decimal.NewFromInt(1500)))
	assert.True(t, m.Cycles[1].PnL.Equal(decimal.NewFromInt(-1000)))

	assert.Nil(t, m.MaxDrawdownPct)
	assert.Nil(t, m.SharpeRatio)
	assert.Nil(t, m.AnnualReturnPct)
}

func TestCalculateMetrics_ProfitFactor(t *testing.T) {
	tbl := []struct {
		sellPrice float64
		wins      int
		losses    int
		undefined bool
	}{
		{sellPrice: 12, wins: 1, losses: 0, undefined: true},
		{sellPrice: 10, wins: 0, losses: 1, undefined: true},
		{sellPrice: 8, wins: 0, losses: 1, undefined: false},
	}

	for i, c := range tbl {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			p := newTestPortfolio(1000)
			require.True(t, p.ExecuteBuy(t0, 10, 10, 0.7, ""))
			require.True(t, p.ExecuteSell(t0, c.sellPrice, 10, 0.7, ""))

			m := CalculateMetrics(p, c.sellPrice, decimal.NewFromInt(1000), nil, MetricsOptions{})
			assert.Equal(t, c.wins, m.WinningTrades)
			assert.Equal(t, c.losses, m.LosingTrades)
			if c.undefined {
				assert.Nil(t, m.ProfitFactor)
			} else {
				require.NotNil(t, m.ProfitFactor)
				assert.Equal(t, 0.0, *m.ProfitFactor)
			}
		})
	}
}

func TestCalculateMetrics_CapitalIdentity(t *testing.T) {
	p := newTestPortfolio(100000)
	prices := []float64{101.37, 99.12, 97.45, 103.99, 104.01, 98.76, 100.33}
	for i, px := range prices {
		if i%3 == 2 {
			p.ExecuteSell(t0, px, p.Shares()/2+1, 0.7, "")
		} else {
			p.ExecuteBuy(t0, px, 77, 0.7, "")
		}
	}
	require.True(t, p.ExecuteSell(t0, 102.5, p.Shares(), 0.7, "liquidate"))

	start := decimal.NewFromInt(100000)
	m := CalculateMetrics(p, 102.5, start, nil, MetricsOptions{})

	assert.True(t, m.EndingCapital.Equal(start.Add(m.RealizedPnL)))
}

func TestCalculateMetrics_Drawdown(t *testing.T) {
	tbl := []struct {
		start  int64
		values []float64
		dd     float64
	}{
		{start: 100, values: []float64{100, 120, 90, 130}, dd: 25},
		{start: 100, values: []float64{100, 110, 120}, dd: 0},
		{start: 200, values: []float64{150, 180}, dd: 25},
	}

	for i, c := range tbl {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			l := &mockLedger{cash: decimal.NewFromInt(c.start)}
			m := CalculateMetrics(l, 1, decimal.NewFromInt(c.start), valuations(c.values...), MetricsOptions{})

			require.NotNil(t, m.MaxDrawdownPct)
			assert.InDelta(t, c.dd, *m.MaxDrawdownPct, 1e-9)
		})
	}
}

func TestCalculateMetrics_MaxCapital(t *testing.T) {
	l := &mockLedger{cash: decimal.NewFromInt(90)}
	m := CalculateMetrics(l, 1, decimal.NewFromInt(100), valuations(100, 140, 90), MetricsOptions{})
	assert.Equal(t, 140.0, m.MaxCapital)
}

func TestCalculateMetrics_Sharpe(t *testing.T) {
	l := &mockLedger{cash: decimal.NewFromInt(99)}
	m := CalculateMetrics(l, 1, decimal.NewFromInt(100), valuations(100, 110, 99), MetricsOptions{RiskFreeRate: 0.02, PeriodsPerYear: 252})

	r1, r2 := 110.0/100-1, 99.0/110-1
	mean := (r1 + r2) / 2
	sd := math.Abs(r1-r2) / math.Sqrt2
	expected := (mean - 0.02/252) / sd * math.Sqrt(252)

	require.NotNil(t, m.SharpeRatio)
	assert.InDelta(t, expected, *m.SharpeRatio, 1e-9)
}

func TestCalculateMetrics_SharpeUnavailable(t *testing.T) {
	tbl := [][]float64{
		nil,
		{100},
		{100, 101},
		{100, 100, 100},
	}

	for i, values := range tbl {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			l := &mockLedger{cash: decimal.NewFromInt(100)}
			m := CalculateMetrics(l, 1, decimal.NewFromInt(100), valuations(values...), MetricsOptions{})
			assert.Nil(t, m.SharpeRatio)
		})
	}
}

func TestCalculateMetrics_AnnualReturn(t *testing.T) {
	l := &mockLedger{cash: decimal.NewFromInt(110)}
	vals := []Valuation{
		{Time: t0, Value: 100},
		{Time: t0.Add(time.Duration(365.25 * 24 * float64(time.Hour))), Value: 110},
	}

	m := CalculateMetrics(l, 1, decimal.NewFromInt(100), vals, MetricsOptions{})
	require.NotNil(t, m.AnnualReturnPct)
	assert.InDelta(t, 10, *m.AnnualReturnPct, 1e-6)
	assert.InDelta(t, 10, m.TotalReturnPct, 1e-9)
}

func TestCalculateMetrics_Idempotent(t *testing.T) {
	p := newTestPortfolio(5000)
	require.True(t, p.ExecuteBuy(t0, 10, 100, 0.7, ""))
	require.True(t, p.ExecuteSell(t0, 11, 50, 0.7, ""))
	vals := valuations(5000, 5050, 4980, 5100)

	m1 := CalculateMetrics(p, 12, decimal.NewFromInt(5000), vals, MetricsOptions{RiskFreeRate: 0.02})
	m2 := CalculateMetrics(p, 12, decimal.NewFromInt(5000), vals, MetricsOptions{RiskFreeRate: 0.02})

	assert.Equal(t, m1, m2)
	assert.Equal(t, int64(50), p.Shares())
	assert.Len(t, p.Trades(), 2)
}

func TestCalculateMetrics_NonFiniteTerminalPrice(t *testing.T) {
	l := &mockLedger{cash: decimal.NewFromInt(500), shares: 10}

	var m Metrics
	require.NotPanics(t, func() {
		m = CalculateMetrics(l, math.NaN(), decimal.NewFromInt(1000), nil, MetricsOptions{})
	})
	assert.True(t, m.CurrentPositionValue.IsZero())
	assert.True(t, m.EndingCapital.Equal(decimal.NewFromInt(500)))
}
