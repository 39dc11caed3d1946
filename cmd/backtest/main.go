package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gamma-omg/quantlab/internal/agent"
	"github.com/gamma-omg/quantlab/internal/config"
	"github.com/gamma-omg/quantlab/internal/indicator"
	"github.com/gamma-omg/quantlab/internal/platform"
	"github.com/gamma-omg/quantlab/internal/telemetry"
)

// Usage: CONFIG=config.yaml backtest [SYMBOL...]
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.ReadFromFile(os.Getenv("CONFIG"))
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	symbols := os.Args[1:]
	if len(symbols) == 0 && cfg.Backtest.Symbol != "" {
		symbols = []string{cfg.Backtest.Symbol}
	}
	if len(symbols) == 0 {
		log.Fatal("no symbol to backtest")
	}

	logger := slog.Default()

	src, closer, err := platform.Create(logger, *cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closer()

	end := cfg.Backtest.End
	if end.IsZero() {
		end = time.Now()
	}
	start := end.AddDate(0, 0, -cfg.Backtest.Days)

	m := telemetry.New()
	r := agent.NewJsonReportBuilder(logger)
	bt := agent.NewBacktester(logger, cfg.Strategy, cfg.Backtest, m)

	for _, symbol := range symbols {
		bars, err := src.GetBars(ctx, symbol, start, end)
		if err != nil {
			log.Fatal(err)
		}

		if cfg.DumpBars != "" {
			if err := agent.DumpBarsToFile(cfg.DumpBars, bars); err != nil {
				log.Fatal(err)
			}
		}

		out, err := bt.Run(symbol, bars)
		if err != nil {
			logger.Error("backtest failed", slog.String("symbol", symbol), slog.Any("err", err))
			continue
		}

		if err := agent.PrintOutcome(os.Stdout, out); err != nil {
			log.Fatal(err)
		}
		r.SubmitOutcome(out)

		if cfg.DebugPlot != "" {
			if err := savePlot(cfg.DebugPlot, out); err != nil {
				logger.Warn("failed to save debug plot", slog.Any("err", err))
			}
		}
	}

	if cfg.Report != "" {
		if err := r.WriteToFile(cfg.Report); err != nil {
			log.Fatal(err)
		}
	}

	if cfg.MetricsFile != "" {
		if err := m.WriteFile(cfg.MetricsFile); err != nil {
			log.Fatal(err)
		}
	}
}

func savePlot(path string, out agent.Outcome) error {
	p := indicator.NewDebugPlot(1600, 1000)
	if err := p.AddReadings(out.Readings(), out.Thresholds); err != nil {
		return err
	}
	if err := p.AddEquity(out.Equity()); err != nil {
		return err
	}
	return p.Save(path)
}
