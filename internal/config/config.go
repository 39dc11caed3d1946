package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	SourceRef   SourceReference `yaml:"source"`
	Interval    time.Duration   `yaml:"interval"`
	CacheDB     string          `yaml:"cache_db"`
	Strategy    Strategy        `yaml:"strategy"`
	Backtest    Backtest        `yaml:"backtest"`
	Sweep       Sweep           `yaml:"sweep"`
	Report      string          `yaml:"report"`
	ResultsCSV  string          `yaml:"results_csv"`
	ResultsDB   string          `yaml:"results_db"`
	MetricsFile string          `yaml:"metrics_file"`
	DebugPlot   string          `yaml:"debug_plot"`
	DumpBars    string          `yaml:"dump_bars"`
}

// defaultRiskFreeRate applies only when risk_free_rate is absent. An explicit 0 is kept.
const defaultRiskFreeRate = 0.02

func Read(r io.Reader) (*Config, error) {
	cfg := Config{
		Backtest: Backtest{RiskFreeRate: defaultRiskFreeRate},
	}
	d := yaml.NewDecoder(r)
	err := d.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

type Sizing string

const (
	SizingFixed      Sizing = "fixed"
	SizingConfidence Sizing = "confidence"
)

type Strategy struct {
	EMAPeriod           int     `yaml:"ema_period"`
	RSIPeriod           int     `yaml:"rsi_period"`
	BBPeriod            int     `yaml:"bb_period"`
	BBWidth             float64 `yaml:"bb_k"`
	RSIOversold         float64 `yaml:"rsi_oversold"`
	RSIOverbought       float64 `yaml:"rsi_overbought"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	Warmup              int     `yaml:"warmup"`
	Sizing              Sizing  `yaml:"sizing"`
	MaxScale            float64 `yaml:"max_scale"`
}

type Backtest struct {
	Symbol            string    `yaml:"symbol"`
	Days              int       `yaml:"days"`
	End               time.Time `yaml:"end"`
	StartingCapital   float64   `yaml:"starting_capital"`
	TradeNotional     float64   `yaml:"trade_notional"`
	LiquidateOnFinish bool      `yaml:"liquidate_on_finish"`
	RiskFreeRate      float64   `yaml:"risk_free_rate"`
	PeriodsPerYear    float64   `yaml:"periods_per_year"`
}

func (b Backtest) Capital() decimal.Decimal {
	return decimal.NewFromFloat(b.StartingCapital)
}

func (b Backtest) Notional() decimal.Decimal {
	return decimal.NewFromFloat(b.TradeNotional)
}

type RSIPair struct {
	Oversold   float64 `yaml:"oversold"`
	Overbought float64 `yaml:"overbought"`
}

type Sweep struct {
	Symbols    []string  `yaml:"symbols"`
	Days       []int     `yaml:"days"`
	Confidence []float64 `yaml:"confidence"`
	RSI        []RSIPair `yaml:"rsi"`
	Workers    int       `yaml:"workers"`
	TopN       int       `yaml:"top_n"`
}

func (c *Config) applyDefaults() {
	s := &c.Strategy
	setDefault(&s.EMAPeriod, 20)
	setDefault(&s.RSIPeriod, 14)
	setDefault(&s.BBPeriod, 20)
	setDefault(&s.BBWidth, 2.0)
	setDefault(&s.RSIOversold, 30)
	setDefault(&s.RSIOverbought, 70)
	setDefault(&s.ConfidenceThreshold, 0.65)
	setDefault(&s.Warmup, s.BBPeriod)
	setDefault(&s.Sizing, SizingFixed)
	setDefault(&s.MaxScale, 1.0)

	b := &c.Backtest
	setDefault(&b.Days, 365)
	setDefault(&b.StartingCapital, 1_000_000)
	setDefault(&b.TradeNotional, 50_000)
	setDefault(&b.PeriodsPerYear, 252)

	w := &c.Sweep
	setDefault(&w.Workers, 4)
	setDefault(&w.TopN, 10)
}

func setDefault[T comparable](v *T, def T) {
	var zero T
	if *v == zero {
		*v = def
	}
}

func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	s := c.Strategy
	if s.EMAPeriod <= 0 || s.RSIPeriod <= 0 || s.BBPeriod <= 0 {
		invalid("indicator periods must be positive (ema=%d rsi=%d bb=%d)", s.EMAPeriod, s.RSIPeriod, s.BBPeriod)
	}
	if s.BBWidth <= 0 {
		invalid("bb_k must be positive, got %v", s.BBWidth)
	}
	if !validRSI(s.RSIOversold, s.RSIOverbought) {
		invalid("rsi thresholds must satisfy 0 < oversold < overbought < 100, got %v/%v", s.RSIOversold, s.RSIOverbought)
	}
	if !validConfidence(s.ConfidenceThreshold) {
		invalid("confidence_threshold must be in (0, 1], got %v", s.ConfidenceThreshold)
	}
	if s.Warmup < 0 {
		invalid("warmup cannot be negative, got %d", s.Warmup)
	}
	if s.Sizing != SizingFixed && s.Sizing != SizingConfidence {
		invalid("unknown sizing %q", s.Sizing)
	}

	b := c.Backtest
	if b.StartingCapital <= 0 {
		invalid("starting_capital must be positive, got %v", b.StartingCapital)
	}
	if b.TradeNotional <= 0 {
		invalid("trade_notional must be positive, got %v", b.TradeNotional)
	}
	if b.Days <= 0 {
		invalid("days must be positive, got %d", b.Days)
	}
	if c.Interval < 0 {
		invalid("interval cannot be negative, got %v", c.Interval)
	}

	for _, v := range c.Sweep.Confidence {
		if !validConfidence(v) {
			invalid("sweep confidence must be in (0, 1], got %v", v)
		}
	}
	for _, d := range c.Sweep.Days {
		if d <= 0 {
			invalid("sweep days must be positive, got %d", d)
		}
	}
	for _, p := range c.Sweep.RSI {
		if !validRSI(p.Oversold, p.Overbought) {
			invalid("sweep rsi pair must satisfy 0 < oversold < overbought < 100, got %v/%v", p.Oversold, p.Overbought)
		}
	}
	if c.Sweep.Workers <= 0 {
		invalid("sweep workers must be positive, got %d", c.Sweep.Workers)
	}

	return errors.Join(errs...)
}

func validRSI(oversold, overbought float64) bool {
	return oversold > 0 && oversold < overbought && overbought < 100
}

func validConfidence(v float64) bool {
	return v > 0 && v <= 1
}

// source configs

type SourceReference struct {
	Source Source
}

type Source interface{}

type Alpaca struct {
	BaseUrl   string `yaml:"base_url"`
	DataUrl   string `yaml:"data_url"`
	Feed      string `yaml:"feed"`
	TimeFrame string `yaml:"timeframe"`
}

type CSV struct {
	Data map[string]string `yaml:"data"`
}

type SQLite struct {
	Path string `yaml:"path"`
}

func (w *SourceReference) UnmarshalYAML(value *yaml.Node) error {
	if len(value.Content) == 0 {
		return nil
	}

	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return errors.New("invalid source yaml format")
	}

	key := value.Content[0].Value
	switch key {
	case "alpaca":
		var alpaca Alpaca
		if err := value.Content[1].Decode(&alpaca); err != nil {
			return fmt.Errorf("failed parsing alpaca source config: %w", err)
		}
		w.Source = alpaca
	case "csv":
		var csv CSV
		if err := value.Content[1].Decode(&csv); err != nil {
			return fmt.Errorf("failed parsing csv source config: %w", err)
		}
		w.Source = csv
	case "sqlite":
		var db SQLite
		if err := value.Content[1].Decode(&db); err != nil {
			return fmt.Errorf("failed parsing sqlite source config: %w", err)
		}
		w.Source = db
	default:
		return fmt.Errorf("unknown source type: %s", key)
	}

	return nil
}
