package agent

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gamma-omg/quantlab/internal/config"
	"github.com/gamma-omg/quantlab/internal/market"
	"github.com/gamma-omg/quantlab/internal/telemetry"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Params is one point of the sweep grid.
type Params struct {
	Symbol        string  `json:"symbol"`
	Days          int     `json:"days"`
	Confidence    float64 `json:"confidence"`
	RSIOversold   float64 `json:"rsi_oversold"`
	RSIOverbought float64 `json:"rsi_overbought"`
}

func (p Params) String() string {
	return fmt.Sprintf("%s/%dd conf=%.2f rsi=%.0f/%.0f", p.Symbol, p.Days, p.Confidence, p.RSIOversold, p.RSIOverbought)
}

type SweepResult struct {
	Params
	TotalReturnPct float64  `json:"total_return_pct"`
	SharpeRatio    *float64 `json:"sharpe_ratio"`
	MaxDrawdownPct *float64 `json:"max_drawdown_pct"`
	ProfitFactor   *float64 `json:"profit_factor"`
	TotalTrades    int      `json:"total_trades"`
	WinningTrades  int      `json:"winning_trades"`
	WinRatePct     float64  `json:"win_rate_pct"`
	Err            error    `json:"-"`
}

// Grid expands the sweep into its cartesian product. Empty axes fall back to
// the single value from the base strategy and backtest settings.
func Grid(sweep config.Sweep, strategy config.Strategy, backtest config.Backtest) []Params {
	symbols := sweep.Symbols
	if len(symbols) == 0 && backtest.Symbol != "" {
		symbols = []string{backtest.Symbol}
	}
	days := sweep.Days
	if len(days) == 0 {
		days = []int{backtest.Days}
	}
	confidence := sweep.Confidence
	if len(confidence) == 0 {
		confidence = []float64{strategy.ConfidenceThreshold}
	}
	rsi := sweep.RSI
	if len(rsi) == 0 {
		rsi = []config.RSIPair{{Oversold: strategy.RSIOversold, Overbought: strategy.RSIOverbought}}
	}

	grid := make([]Params, 0, len(symbols)*len(days)*len(confidence)*len(rsi))
	for _, s := range symbols {
		for _, d := range days {
			for _, c := range confidence {
				for _, r := range rsi {
					grid = append(grid, Params{
						Symbol:        s,
						Days:          d,
						Confidence:    c,
						RSIOversold:   r.Oversold,
						RSIOverbought: r.Overbought,
					})
				}
			}
		}
	}

	return grid
}

// Optimizer runs a bounded-concurrency backtest per grid point. Bars for each
// (symbol, days) window are fetched once and shared by every run that needs them.
type Optimizer struct {
	log     *slog.Logger
	source  BarSource
	cfg     config.Config
	metrics *telemetry.Metrics
	now     func() time.Time

	fetches singleflight.Group
	mu      sync.Mutex
	bars    map[string][]market.Bar
}

func NewOptimizer(log *slog.Logger, source BarSource, cfg config.Config, m *telemetry.Metrics) *Optimizer {
	return &Optimizer{
		log:     log,
		source:  source,
		cfg:     cfg,
		metrics: m,
		now:     time.Now,
		bars:    map[string][]market.Bar{},
	}
}

func (o *Optimizer) end() time.Time {
	if !o.cfg.Backtest.End.IsZero() {
		return o.cfg.Backtest.End
	}
	return o.now()
}

func (o *Optimizer) loadBars(ctx context.Context, symbol string, days int, end time.Time) ([]market.Bar, error) {
	key := fmt.Sprintf("%s/%d", symbol, days)

	o.mu.Lock()
	cached, ok := o.bars[key]
	o.mu.Unlock()
	if ok {
		return cached, nil
	}

	v, err, _ := o.fetches.Do(key, func() (any, error) {
		o.mu.Lock()
		cached, ok := o.bars[key]
		o.mu.Unlock()
		if ok {
			return cached, nil
		}

		start, stop := lookback(end, days)
		bars, err := o.source.GetBars(ctx, symbol, start, stop)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch bars for %s: %w", key, err)
		}

		o.mu.Lock()
		o.bars[key] = bars
		o.mu.Unlock()
		return bars, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]market.Bar), nil
}

// Run evaluates every grid point and returns results sorted by total return,
// best first. Failed runs are kept with Err set and sort last. Only context
// cancellation aborts the sweep.
func (o *Optimizer) Run(ctx context.Context, grid []Params) ([]SweepResult, error) {
	end := o.end()
	results := make([]SweepResult, len(grid))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(o.cfg.Sweep.Workers, 1))

	for i, p := range grid {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[i] = o.evaluate(ctx, p, end)
			if errors.Is(results[i].Err, context.Canceled) || errors.Is(results[i].Err, context.DeadlineExceeded) {
				return results[i].Err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sweep aborted: %w", err)
	}

	SortResults(results)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if o.metrics != nil && len(results) > 0 && results[0].Err == nil {
		o.metrics.BestReturnPct.Set(results[0].TotalReturnPct)
	}

	o.log.Info("sweep finished",
		slog.Int("combinations", len(results)),
		slog.Int("failed", failed))

	return results, nil
}

func (o *Optimizer) evaluate(ctx context.Context, p Params, end time.Time) SweepResult {
	res := SweepResult{Params: p}

	bars, err := o.loadBars(ctx, p.Symbol, p.Days, end)
	if err != nil {
		o.log.Warn("sweep run failed", slog.String("params", p.String()), slog.Any("err", err))
		res.Err = err
		return res
	}

	strategy := o.cfg.Strategy
	strategy.ConfidenceThreshold = p.Confidence
	strategy.RSIOversold = p.RSIOversold
	strategy.RSIOverbought = p.RSIOverbought

	log := o.log.With(slog.String("params", p.String()))
	out, err := NewBacktester(log, strategy, o.cfg.Backtest, o.metrics).Run(p.Symbol, bars)
	if err != nil {
		log.Warn("sweep run failed", slog.Any("err", err))
		res.Err = err
		return res
	}

	m := out.Metrics
	res.TotalReturnPct = m.TotalReturnPct
	res.SharpeRatio = m.SharpeRatio
	res.MaxDrawdownPct = m.MaxDrawdownPct
	res.ProfitFactor = m.ProfitFactor
	res.TotalTrades = m.TotalTrades
	res.WinningTrades = m.WinningTrades
	res.WinRatePct = m.WinRatePct
	return res
}

// SortResults orders results by total return descending. Ties are broken by
// symbol, confidence and days so the output is deterministic.
func SortResults(results []SweepResult) {
	slices.SortStableFunc(results, func(a, b SweepResult) int {
		if (a.Err == nil) != (b.Err == nil) {
			if a.Err == nil {
				return -1
			}
			return 1
		}
		return cmp.Or(
			cmp.Compare(b.TotalReturnPct, a.TotalReturnPct),
			cmp.Compare(a.Symbol, b.Symbol),
			cmp.Compare(a.Confidence, b.Confidence),
			cmp.Compare(a.Days, b.Days),
			cmp.Compare(a.RSIOversold, b.RSIOversold),
		)
	})
}

// Top returns at most n successful results.
func Top(results []SweepResult, n int) []SweepResult {
	out := make([]SweepResult, 0, n)
	for _, r := range results {
		if len(out) == n {
			break
		}
		if r.Err == nil {
			out = append(out, r)
		}
	}
	return out
}
