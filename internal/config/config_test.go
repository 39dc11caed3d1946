package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Strategy(t *testing.T) {
	cfg, err := Read(strings.NewReader(`
strategy:
    ema_period: 10
    rsi_period: 7
    bb_period: 15
    bb_k: 1.5
    rsi_oversold: 25
    rsi_overbought: 75
    confidence_threshold: 0.7
    warmup: 30
    sizing: confidence
    max_scale: 1.2
`))

	require.NoError(t, err)

	s := cfg.Strategy
	assert.Equal(t, 10, s.EMAPeriod)
	assert.Equal(t, 7, s.RSIPeriod)
	assert.Equal(t, 15, s.BBPeriod)
	assert.Equal(t, 1.5, s.BBWidth)
	assert.Equal(t, 25.0, s.RSIOversold)
	assert.Equal(t, 75.0, s.RSIOverbought)
	assert.Equal(t, 0.7, s.ConfidenceThreshold)
	assert.Equal(t, 30, s.Warmup)
	assert.Equal(t, SizingConfidence, s.Sizing)
	assert.Equal(t, 1.2, s.MaxScale)
	assert.NoError(t, cfg.Validate())
}

func TestRead_RiskFreeRate(t *testing.T) {
	tbl := []struct {
		yaml string
		rate float64
	}{
		{yaml: "", rate: 0.02},
		{yaml: "backtest:\n  days: 30\n", rate: 0.02},
		{yaml: "backtest:\n  risk_free_rate: 0\n", rate: 0},
		{yaml: "backtest:\n  risk_free_rate: 0.045\n", rate: 0.045},
	}

	for i, c := range tbl {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			cfg, err := Read(strings.NewReader(c.yaml))
			require.NoError(t, err)
			assert.Equal(t, c.rate, cfg.Backtest.RiskFreeRate)
		})
	}
}

func TestRead_Defaults(t *testing.T) {
	cfg, err := Read(strings.NewReader(""))
	require.NoError(t, err)

	s := cfg.Strategy
	assert.Equal(t, 20, s.EMAPeriod)
	assert.Equal(t, 14, s.RSIPeriod)
	assert.Equal(t, 20, s.BBPeriod)
	assert.Equal(t, 2.0, s.BBWidth)
	assert.Equal(t, 30.0, s.RSIOversold)
	assert.Equal(t, 70.0, s.RSIOverbought)
	assert.Equal(t, 0.65, s.ConfidenceThreshold)
	assert.Equal(t, 20, s.Warmup)
	assert.Equal(t, SizingFixed, s.Sizing)

	b := cfg.Backtest
	assert.Equal(t, 1_000_000.0, b.StartingCapital)
	assert.Equal(t, 50_000.0, b.TradeNotional)
	assert.Equal(t, 0.02, b.RiskFreeRate)
	assert.Equal(t, 252.0, b.PeriodsPerYear)
	assert.True(t, b.Capital().Equal(b.Capital()))
	assert.Equal(t, "1000000", b.Capital().String())
	assert.Equal(t, "50000", b.Notional().String())

	assert.Nil(t, cfg.SourceRef.Source)
	assert.NoError(t, cfg.Validate())
}

func TestRead_Alpaca(t *testing.T) {
	cfg, err := Read(strings.NewReader(`
source:
    alpaca:
        base_url: https://paper-api.alpaca.markets
        data_url: https://data.alpaca.markets
        feed: iex
        timeframe: 1Day
interval: 1h
`))

	require.NoError(t, err)

	a, ok := cfg.SourceRef.Source.(Alpaca)
	require.True(t, ok)
	assert.Equal(t, "https://paper-api.alpaca.markets", a.BaseUrl)
	assert.Equal(t, "https://data.alpaca.markets", a.DataUrl)
	assert.Equal(t, "iex", a.Feed)
	assert.Equal(t, "1Day", a.TimeFrame)
	assert.Equal(t, time.Hour, cfg.Interval)
}

func TestRead_CSV(t *testing.T) {
	cfg, err := Read(strings.NewReader(`
source:
    csv:
        data:
            AAPL: /var/data/aapl.csv
            MSFT: /var/data/msft.csv
backtest:
    symbol: AAPL
    days: 90
    liquidate_on_finish: true
`))

	require.NoError(t, err)

	c, ok := cfg.SourceRef.Source.(CSV)
	require.True(t, ok)
	assert.Equal(t, "/var/data/aapl.csv", c.Data["AAPL"])
	assert.Equal(t, "/var/data/msft.csv", c.Data["MSFT"])
	assert.Equal(t, "AAPL", cfg.Backtest.Symbol)
	assert.Equal(t, 90, cfg.Backtest.Days)
	assert.True(t, cfg.Backtest.LiquidateOnFinish)
}

func TestRead_SQLiteAndSweep(t *testing.T) {
	cfg, err := Read(strings.NewReader(`
source:
    sqlite:
        path: /var/data/bars.db
sweep:
    symbols: [AAPL, MSFT, GOOGL]
    days: [30, 90]
    confidence: [0.6, 0.65, 0.7]
    rsi:
        - oversold: 25
          overbought: 75
    workers: 8
results_csv: out.csv
results_db: out.db
metrics_file: out.prom
`))

	require.NoError(t, err)

	db, ok := cfg.SourceRef.Source.(SQLite)
	require.True(t, ok)
	assert.Equal(t, "/var/data/bars.db", db.Path)

	w := cfg.Sweep
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL"}, w.Symbols)
	assert.Equal(t, []int{30, 90}, w.Days)
	assert.Equal(t, []float64{0.6, 0.65, 0.7}, w.Confidence)
	assert.Equal(t, []RSIPair{{Oversold: 25, Overbought: 75}}, w.RSI)
	assert.Equal(t, 8, w.Workers)
	assert.Equal(t, 10, w.TopN)
	assert.Equal(t, "out.csv", cfg.ResultsCSV)
	assert.Equal(t, "out.db", cfg.ResultsDB)
	assert.Equal(t, "out.prom", cfg.MetricsFile)
}

func TestRead_UnknownSource(t *testing.T) {
	_, err := Read(strings.NewReader(`
source:
    binance:
        key: x
`))
	assert.ErrorContains(t, err, "unknown source type")
}

func TestReadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backtest:\n    symbol: SPY\n"), 0o644))

	cfg, err := ReadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SPY", cfg.Backtest.Symbol)

	_, err = ReadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tbl := []struct {
		mutate func(c *Config)
		ok     bool
	}{
		{mutate: func(c *Config) {}, ok: true},
		{mutate: func(c *Config) { c.Strategy.RSIOversold = 80 }},
		{mutate: func(c *Config) { c.Strategy.RSIOverbought = 100 }},
		{mutate: func(c *Config) { c.Strategy.RSIOversold = -1 }},
		{mutate: func(c *Config) { c.Strategy.ConfidenceThreshold = 1.5 }},
		{mutate: func(c *Config) { c.Strategy.ConfidenceThreshold = -0.1 }},
		{mutate: func(c *Config) { c.Strategy.ConfidenceThreshold = 1 }, ok: true},
		{mutate: func(c *Config) { c.Strategy.EMAPeriod = -5 }},
		{mutate: func(c *Config) { c.Strategy.BBWidth = -2 }},
		{mutate: func(c *Config) { c.Strategy.Sizing = "kelly" }},
		{mutate: func(c *Config) { c.Backtest.StartingCapital = -1 }},
		{mutate: func(c *Config) { c.Backtest.TradeNotional = -1 }},
		{mutate: func(c *Config) { c.Sweep.Confidence = []float64{0.5, 0} }},
		{mutate: func(c *Config) { c.Sweep.RSI = []RSIPair{{Oversold: 70, Overbought: 30}} }},
		{mutate: func(c *Config) { c.Sweep.Days = []int{30, -1} }},
		{mutate: func(c *Config) { c.Interval = -time.Minute }},
	}

	for i, c := range tbl {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			cfg, err := Read(strings.NewReader(""))
			require.NoError(t, err)

			c.mutate(cfg)
			err = cfg.Validate()
			if c.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ALPACA_API_KEY_ID", "key")
	t.Setenv("ALPACA_API_SECRET_KEY", "secret")
	t.Setenv("ALPACA_BASE_URL", "https://api.alpaca.markets")

	c, err := LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "key", c.APIKey)
	assert.Equal(t, "secret", c.APISecret)
	assert.Equal(t, "https://api.alpaca.markets", c.BaseURL)
}

func TestLoadCredentials_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ALPACA_API_KEY_ID=from-file\nALPACA_API_SECRET_KEY=file-secret\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("ALPACA_API_KEY_ID", "")
	t.Setenv("ALPACA_API_SECRET_KEY", "")
	os.Unsetenv("ALPACA_API_KEY_ID")
	os.Unsetenv("ALPACA_API_SECRET_KEY")
	t.Setenv("ALPACA_BASE_URL", "")
	os.Unsetenv("ALPACA_BASE_URL")

	c, err := LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "from-file", c.APIKey)
	assert.Equal(t, "file-secret", c.APISecret)
	assert.Equal(t, "https://paper-api.alpaca.markets", c.BaseURL)
}

func TestLoadCredentials_Missing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ALPACA_API_KEY_ID", "")
	t.Setenv("ALPACA_API_SECRET_KEY", "")
	os.Unsetenv("ALPACA_API_KEY_ID")
	os.Unsetenv("ALPACA_API_SECRET_KEY")

	_, err := LoadCredentials()
	assert.Error(t, err)
}
