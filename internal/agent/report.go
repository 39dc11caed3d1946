package agent

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gamma-omg/quantlab/internal/portfolio"
)

// JsonReportBuilder collects backtest outcomes and sweep results from any
// number of goroutines and renders them as one JSON document.
type JsonReportBuilder struct {
	log    *slog.Logger
	report JsonReport
	now    func() time.Time
	mu     sync.Mutex
}

type JsonReport struct {
	Backtests map[string]JsonBacktest `json:"backtests,omitempty"`
	Sweep     *JsonSweep              `json:"sweep,omitempty"`
}

type JsonBacktest struct {
	Bars    int               `json:"bars"`
	Metrics portfolio.Metrics `json:"metrics"`
	Trades  []JsonTrade       `json:"trades,omitempty"`
}

type JsonTrade struct {
	Time       time.Time `json:"time"`
	Side       string    `json:"side"`
	Price      string    `json:"price"`
	Shares     int64     `json:"shares"`
	Value      string    `json:"value"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason,omitempty"`
}

type JsonSweep struct {
	Summary JsonSweepSummary  `json:"summary"`
	Results []JsonSweepResult `json:"results"`
}

type JsonSweepSummary struct {
	TotalCombinations int       `json:"total_combinations"`
	SymbolsTested     []string  `json:"symbols_tested"`
	Failed            int       `json:"failed"`
	DateGenerated     time.Time `json:"date_generated"`
}

type JsonSweepResult struct {
	SweepResult
	Error string `json:"error,omitempty"`
}

func NewJsonReportBuilder(log *slog.Logger) *JsonReportBuilder {
	return &JsonReportBuilder{
		log: log,
		now: time.Now,
		report: JsonReport{
			Backtests: map[string]JsonBacktest{},
		},
	}
}

func (r *JsonReportBuilder) SubmitOutcome(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trades := make([]JsonTrade, 0, len(o.Trades))
	for _, t := range o.Trades {
		trades = append(trades, JsonTrade{
			Time:       t.Time,
			Side:       t.Side.String(),
			Price:      t.Price.String(),
			Shares:     t.Shares,
			Value:      t.Value.String(),
			Confidence: t.Confidence,
			Reason:     t.Reason,
		})
	}

	r.report.Backtests[o.Symbol] = JsonBacktest{
		Bars:    o.Bars,
		Metrics: o.Metrics,
		Trades:  trades,
	}

	r.log.Info("backtest submitted",
		slog.String("symbol", o.Symbol),
		slog.Int("trades", len(trades)),
		slog.Float64("return_pct", o.Metrics.TotalReturnPct))
}

func (r *JsonReportBuilder) SubmitSweep(results []SweepResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := map[string]bool{}
	sweep := &JsonSweep{
		Summary: JsonSweepSummary{
			TotalCombinations: len(results),
			SymbolsTested:     []string{},
			DateGenerated:     r.now().UTC(),
		},
		Results: make([]JsonSweepResult, 0, len(results)),
	}

	for _, res := range results {
		if !seen[res.Symbol] {
			seen[res.Symbol] = true
			sweep.Summary.SymbolsTested = append(sweep.Summary.SymbolsTested, res.Symbol)
		}

		out := JsonSweepResult{SweepResult: res}
		if res.Err != nil {
			out.Error = res.Err.Error()
			sweep.Summary.Failed++
		}
		sweep.Results = append(sweep.Results, out)
	}

	r.report.Sweep = sweep
}

func (r *JsonReportBuilder) Write(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	if err := e.Encode(r.report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

func (r *JsonReportBuilder) WriteToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	if err := r.Write(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
