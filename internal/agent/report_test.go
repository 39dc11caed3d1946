package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gamma-omg/quantlab/internal/portfolio"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_sweep(t *testing.T) {
	r := NewJsonReportBuilder(discardLog())
	r.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	r.SubmitSweep([]SweepResult{
		{
			Params:         Params{Symbol: "AAPL", Days: 90, Confidence: 0.7, RSIOversold: 30, RSIOverbought: 70},
			TotalReturnPct: 4.5,
			SharpeRatio:    ptr(1.25),
			MaxDrawdownPct: ptr(2),
			TotalTrades:    6,
			WinningTrades:  2,
			WinRatePct:     66.7,
		},
		{
			Params: Params{Symbol: "MSFT", Days: 90, Confidence: 0.7, RSIOversold: 30, RSIOverbought: 70},
			Err:    errors.New("no market data"),
		},
		{
			Params:         Params{Symbol: "AAPL", Days: 180, Confidence: 0.7, RSIOversold: 30, RSIOverbought: 70},
			TotalReturnPct: -1,
		},
	})

	var buff bytes.Buffer
	require.NoError(t, r.Write(&buff))

	assert.JSONEq(t, `
{
	"sweep": {
		"summary": {
			"total_combinations": 3,
			"symbols_tested": ["AAPL", "MSFT"],
			"failed": 1,
			"date_generated": "2025-03-01T12:00:00Z"
		},
		"results": [
			{
				"symbol": "AAPL", "days": 90, "confidence": 0.7, "rsi_oversold": 30, "rsi_overbought": 70,
				"total_return_pct": 4.5, "sharpe_ratio": 1.25, "max_drawdown_pct": 2, "profit_factor": null,
				"total_trades": 6, "winning_trades": 2, "win_rate_pct": 66.7
			},
			{
				"symbol": "MSFT", "days": 90, "confidence": 0.7, "rsi_oversold": 30, "rsi_overbought": 70,
				"total_return_pct": 0, "sharpe_ratio": null, "max_drawdown_pct": null, "profit_factor": null,
				"total_trades": 0, "winning_trades": 0, "win_rate_pct": 0, "error": "no market data"
			},
			{
				"symbol": "AAPL", "days": 180, "confidence": 0.7, "rsi_oversold": 30, "rsi_overbought": 70,
				"total_return_pct": -1, "sharpe_ratio": null, "max_drawdown_pct": null, "profit_factor": null,
				"total_trades": 0, "winning_trades": 0, "win_rate_pct": 0
			}
		]
	}
}`, buff.String())
}

func TestWrite_outcome(t *testing.T) {
	r := NewJsonReportBuilder(discardLog())
	r.SubmitOutcome(Outcome{
		Symbol: "AAPL",
		Bars:   250,
		Trades: []portfolio.Trade{{
			Time:       time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			Side:       portfolio.SideBuy,
			Price:      decimal.NewFromFloat(101.5),
			Shares:     10,
			Value:      decimal.NewFromFloat(1015),
			Confidence: 0.8,
		}},
		Metrics: portfolio.Metrics{
			StartingCapital: decimal.NewFromInt(1000),
			EndingCapital:   decimal.NewFromInt(1100),
			TotalReturnPct:  10,
			TotalTrades:     1,
		},
	})

	var buff bytes.Buffer
	require.NoError(t, r.Write(&buff))

	var got struct {
		Backtests map[string]struct {
			Bars    int `json:"bars"`
			Metrics struct {
				EndingCapital  string  `json:"ending_capital"`
				TotalReturnPct float64 `json:"total_return_pct"`
			} `json:"metrics"`
			Trades []JsonTrade `json:"trades"`
		} `json:"backtests"`
		Sweep *JsonSweep `json:"sweep"`
	}
	require.NoError(t, json.Unmarshal(buff.Bytes(), &got))

	aapl, ok := got.Backtests["AAPL"]
	require.True(t, ok)
	assert.Equal(t, 250, aapl.Bars)
	assert.Equal(t, "1100", aapl.Metrics.EndingCapital)
	assert.Equal(t, 10.0, aapl.Metrics.TotalReturnPct)
	require.Len(t, aapl.Trades, 1)
	assert.Equal(t, "BUY", aapl.Trades[0].Side)
	assert.Equal(t, "101.5", aapl.Trades[0].Price)
	assert.Equal(t, "1015", aapl.Trades[0].Value)
	assert.Nil(t, got.Sweep)
}

func TestWrite_emptyReport(t *testing.T) {
	r := NewJsonReportBuilder(discardLog())

	var buff bytes.Buffer
	require.NoError(t, r.Write(&buff))

	assert.JSONEq(t, "{}", buff.String())
}

func TestWriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	r := NewJsonReportBuilder(discardLog())
	r.SubmitOutcome(Outcome{Symbol: "AAPL"})

	require.NoError(t, r.WriteToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"AAPL"`)
}
