package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gamma-omg/quantlab/internal/config"
	"github.com/gamma-omg/quantlab/internal/indicator"
	"github.com/gamma-omg/quantlab/internal/market"
)

// BarSignal is the strategy output for one bar.
type BarSignal struct {
	Time    time.Time         `json:"time"`
	Price   float64           `json:"price"`
	Reading indicator.Reading `json:"reading"`
	Signal  indicator.Signal  `json:"signal"`
	Ready   bool              `json:"ready"`
}

// MeanReversionStrategy trades RSI extremes confirmed by a confidence score
// built from Bollinger bands, EMA trend and volatility.
type MeanReversionStrategy struct {
	log    *slog.Logger
	cfg    config.Strategy
	th     indicator.Thresholds
	ind    *indicator.Set
	warmup int
}

func NewMeanReversionStrategy(log *slog.Logger, cfg config.Strategy) (*MeanReversionStrategy, error) {
	ind, err := indicator.NewSet(indicator.SetConfig{
		EMAPeriod: cfg.EMAPeriod,
		RSIPeriod: cfg.RSIPeriod,
		BBPeriod:  cfg.BBPeriod,
		BBWidth:   cfg.BBWidth,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create indicators: %w", err)
	}

	warmup := cfg.Warmup
	if warmup <= 0 {
		warmup = cfg.BBPeriod
	}

	return &MeanReversionStrategy{
		log: log,
		cfg: cfg,
		th: indicator.Thresholds{
			Oversold:   cfg.RSIOversold,
			Overbought: cfg.RSIOverbought,
			Confidence: cfg.ConfidenceThreshold,
		},
		ind:    ind,
		warmup: warmup,
	}, nil
}

func (s *MeanReversionStrategy) Thresholds() indicator.Thresholds {
	return s.th
}

// Next feeds price to the indicators and evaluates the resulting reading.
func (s *MeanReversionStrategy) Next(price float64) (indicator.Reading, indicator.Signal) {
	r := s.ind.Update(price)
	return r, indicator.Evaluate(r, s.th)
}

// Backtest resets the indicators, warms them on the first min(warmup, n/2)
// bars and returns one signal for every remaining bar.
func (s *MeanReversionStrategy) Backtest(bars []market.Bar) []BarSignal {
	s.ind.Reset()

	warm := min(s.warmup, len(bars)/2)
	for _, b := range bars[:warm] {
		s.ind.Update(b.Close)
	}

	out := make([]BarSignal, 0, len(bars)-warm)
	for _, b := range bars[warm:] {
		r, sig := s.Next(b.Close)
		out = append(out, BarSignal{
			Time:    b.Time(),
			Price:   b.Close,
			Reading: r,
			Signal:  sig,
			Ready:   s.ind.Ready(),
		})
	}

	s.log.Debug("backtest signals generated", slog.Int("bars", len(bars)), slog.Int("warmup", warm), slog.Int("signals", len(out)))
	return out
}

// GenerateSignal warms the indicators on history and evaluates the mid price
// of the latest quote. A missing quote yields ActNone and an error wrapping
// ErrNoSignal.
func (s *MeanReversionStrategy) GenerateSignal(ctx context.Context, history []market.Bar, quotes QuoteSource, symbol string) (BarSignal, error) {
	none := BarSignal{Signal: indicator.Signal{Act: indicator.ActNone, Reason: "no quote data available"}}

	if len(history) == 0 {
		return none, fmt.Errorf("%w: %w for %s", ErrNoSignal, ErrNoData, symbol)
	}

	s.ind.Reset()
	for _, b := range history {
		s.ind.Update(b.Close)
	}

	q, err := quotes.GetLatestQuote(ctx, symbol)
	if err != nil {
		return none, fmt.Errorf("%w: %w", ErrNoSignal, err)
	}

	price := q.MidPrice()
	r, sig := s.Next(price)
	s.log.Info("signal generated",
		slog.String("symbol", symbol),
		slog.String("action", sig.Act.String()),
		slog.Float64("confidence", sig.Confidence),
		slog.Float64("price", price))

	return BarSignal{
		Time:    q.Time,
		Price:   price,
		Reading: r,
		Signal:  sig,
		Ready:   s.ind.Ready(),
	}, nil
}
