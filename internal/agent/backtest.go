package agent

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gamma-omg/quantlab/internal/config"
	"github.com/gamma-omg/quantlab/internal/indicator"
	"github.com/gamma-omg/quantlab/internal/market"
	"github.com/gamma-omg/quantlab/internal/portfolio"
	"github.com/gamma-omg/quantlab/internal/telemetry"
)

// Outcome is everything a single backtest run produced.
type Outcome struct {
	Symbol     string                `json:"symbol"`
	Bars       int                   `json:"bars"`
	Signals    []BarSignal           `json:"-"`
	Trades     []portfolio.Trade     `json:"trades"`
	Valuations []portfolio.Valuation `json:"-"`
	Metrics    portfolio.Metrics     `json:"metrics"`
	Thresholds indicator.Thresholds  `json:"-"`
}

func (o Outcome) Readings() []indicator.Reading {
	out := make([]indicator.Reading, len(o.Signals))
	for i, s := range o.Signals {
		out[i] = s.Reading
	}
	return out
}

func (o Outcome) Equity() []float64 {
	out := make([]float64, len(o.Valuations))
	for i, v := range o.Valuations {
		out[i] = v.Value
	}
	return out
}

// Backtester replays bars through a fresh strategy and a simulated portfolio.
type Backtester struct {
	log      *slog.Logger
	strategy config.Strategy
	cfg      config.Backtest
	metrics  *telemetry.Metrics
}

func NewBacktester(log *slog.Logger, strategy config.Strategy, cfg config.Backtest, m *telemetry.Metrics) *Backtester {
	return &Backtester{
		log:      log,
		strategy: strategy,
		cfg:      cfg,
		metrics:  m,
	}
}

func (b *Backtester) scaler() sharesScaler {
	if b.strategy.Sizing == config.SizingConfidence {
		return &market.ConfidenceScaler{Notional: b.cfg.Notional(), MaxScale: b.strategy.MaxScale}
	}

	return &market.FixedNotionalScaler{Notional: b.cfg.Notional()}
}

func (b *Backtester) Run(symbol string, bars []market.Bar) (o Outcome, err error) {
	started := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.ObserveRun(time.Since(started), err)
		}
	}()

	if len(bars) == 0 {
		return Outcome{}, fmt.Errorf("%w for %s", ErrNoData, symbol)
	}
	if err := market.ValidateBars(bars); err != nil {
		return Outcome{}, fmt.Errorf("failed to backtest %s: %w", symbol, err)
	}

	s, err := NewMeanReversionStrategy(b.log, b.strategy)
	if err != nil {
		return Outcome{}, err
	}

	signals := s.Backtest(bars)
	capital := b.cfg.Capital()
	p := portfolio.New(b.log.With(slog.String("symbol", symbol)), capital)
	scaler := b.scaler()

	valuations := make([]portfolio.Valuation, 0, len(signals))
	for _, sig := range signals {
		b.execute(p, scaler, sig)

		v, _ := p.TotalValue(sig.Price).Float64()
		valuations = append(valuations, portfolio.Valuation{Time: sig.Time, Value: v})
	}

	last := bars[len(bars)-1]
	if b.cfg.LiquidateOnFinish && p.Shares() > 0 {
		if p.ExecuteSell(last.Time(), last.Close, p.Shares(), 1.0, "liquidate at end of run") {
			b.countTrade(portfolio.SideSell)
		}
	}

	m := portfolio.CalculateMetrics(p, last.Close, capital, valuations, portfolio.MetricsOptions{
		RiskFreeRate:   b.cfg.RiskFreeRate,
		PeriodsPerYear: b.cfg.PeriodsPerYear,
	})

	if b.metrics != nil {
		b.metrics.BarsProcessed.Add(float64(len(bars)))
	}

	b.log.Info("backtest finished",
		slog.String("symbol", symbol),
		slog.Int("bars", len(bars)),
		slog.Int("trades", m.TotalTrades),
		slog.Float64("return_pct", m.TotalReturnPct))

	return Outcome{
		Symbol:     symbol,
		Bars:       len(bars),
		Signals:    signals,
		Trades:     p.Trades(),
		Valuations: valuations,
		Metrics:    m,
		Thresholds: s.Thresholds(),
	}, nil
}

func (b *Backtester) execute(p *portfolio.Portfolio, scaler sharesScaler, sig BarSignal) {
	if b.metrics != nil {
		b.metrics.SignalsTotal.WithLabelValues(sig.Signal.Act.String()).Inc()
	}

	switch sig.Signal.Act {
	case indicator.ActBuy:
		shares := scaler.GetShares(sig.Price, sig.Signal.Confidence)
		if p.ExecuteBuy(sig.Time, sig.Price, shares, sig.Signal.Confidence, sig.Signal.Reason) {
			b.countTrade(portfolio.SideBuy)
		}
	case indicator.ActSell:
		if p.Shares() == 0 {
			return
		}
		shares := min(scaler.GetShares(sig.Price, sig.Signal.Confidence), p.Shares())
		if p.ExecuteSell(sig.Time, sig.Price, shares, sig.Signal.Confidence, sig.Signal.Reason) {
			b.countTrade(portfolio.SideSell)
		}
	case indicator.ActHold, indicator.ActNone:
	}
}

func (b *Backtester) countTrade(side portfolio.Side) {
	if b.metrics != nil {
		b.metrics.TradesTotal.WithLabelValues(side.String()).Inc()
	}
}
