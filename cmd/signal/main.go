package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gamma-omg/quantlab/internal/agent"
	"github.com/gamma-omg/quantlab/internal/config"
	"github.com/gamma-omg/quantlab/internal/platform"
)

// Usage: CONFIG=config.yaml signal [SYMBOL]
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

	symbol := cfg.Backtest.Symbol
	if len(os.Args) > 1 {
		symbol = os.Args[1]
	}
	if symbol == "" {
		log.Fatal("no symbol given")
	}

	logger := slog.Default()

	src, closer, err := platform.Create(logger, *cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closer()

	if err := src.Ping(ctx); err != nil {
		log.Fatal(err)
	}

	end := time.Now()
	history, err := src.GetBars(ctx, symbol, end.AddDate(0, 0, -cfg.Backtest.Days), end)
	if err != nil {
		log.Fatal(err)
	}

	s, err := agent.NewMeanReversionStrategy(logger, cfg.Strategy)
	if err != nil {
		log.Fatal(err)
	}

	sig, err := s.GenerateSignal(ctx, history, src, symbol)
	if errors.Is(err, agent.ErrNoSignal) {
		fmt.Printf("%s: %s (%v)\n", symbol, sig.Signal.Act, err)
		closer()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}

	if err := agent.PrintSignal(os.Stdout, symbol, sig); err != nil {
		log.Fatal(err)
	}
}
