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
	"github.com/gamma-omg/quantlab/internal/platform"
	"github.com/gamma-omg/quantlab/internal/store/sqlite"
	"github.com/gamma-omg/quantlab/internal/telemetry"
)

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

	logger := slog.Default()

	src, closer, err := platform.Create(logger, *cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closer()

	grid := agent.Grid(cfg.Sweep, cfg.Strategy, cfg.Backtest)
	if len(grid) == 0 {
		log.Fatal("empty sweep: no symbols configured")
	}
	logger.Info("starting sweep", slog.Int("combinations", len(grid)), slog.Int("workers", cfg.Sweep.Workers))

	m := telemetry.New()
	results, err := agent.NewOptimizer(logger, src, *cfg, m).Run(ctx, grid)
	if err != nil {
		log.Fatal(err)
	}

	if err := agent.PrintTop(os.Stdout, results, cfg.Sweep.TopN); err != nil {
		log.Fatal(err)
	}

	if cfg.ResultsCSV != "" {
		if err := agent.WriteSweepCsvToFile(cfg.ResultsCSV, results); err != nil {
			log.Fatal(err)
		}
	}

	if cfg.ResultsDB != "" {
		db, err := sqlite.Open(cfg.ResultsDB)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()

		runID := time.Now().UTC().Format("20060102T150405Z")
		if err := agent.SaveResults(ctx, db, runID, results); err != nil {
			log.Fatal(err)
		}
		logger.Info("sweep results saved", slog.String("run_id", runID))
	}

	if cfg.Report != "" {
		r := agent.NewJsonReportBuilder(logger)
		r.SubmitSweep(results)
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
