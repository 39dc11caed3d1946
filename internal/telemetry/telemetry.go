package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for backtest and sweep runs. Each
// instance owns its registry so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal     *prometheus.CounterVec // labels: status
	SignalsTotal  *prometheus.CounterVec // labels: action
	TradesTotal   *prometheus.CounterVec // labels: side
	RunDuration   prometheus.Histogram
	BarsProcessed prometheus.Counter
	BestReturnPct prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantlab_runs_total",
			Help: "Backtest runs by outcome",
		}, []string{"status"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantlab_signals_total",
			Help: "Signals emitted by action",
		}, []string{"action"}),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantlab_trades_total",
			Help: "Simulated trades executed by side",
		}, []string{"side"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quantlab_run_duration_seconds",
			Help:    "Wall time of a single backtest run",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		BarsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quantlab_bars_processed_total",
			Help: "Bars fed through the strategy",
		}),
		BestReturnPct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quantlab_best_return_pct",
			Help: "Best total return seen in the latest sweep",
		}),
	}

	m.registry.MustRegister(
		m.RunsTotal,
		m.SignalsTotal,
		m.TradesTotal,
		m.RunDuration,
		m.BarsProcessed,
		m.BestReturnPct,
	)

	return m
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(took time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(took.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFile exports every collector in the text exposition format so a
// node_exporter textfile collector can pick it up.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}

	return nil
}
