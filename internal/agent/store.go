package agent

import (
	"context"
	"fmt"

	"github.com/gamma-omg/quantlab/internal/store/sqlite"
)

// SaveResults persists a sweep under runID.
func SaveResults(ctx context.Context, db *sqlite.DB, runID string, results []SweepResult) error {
	records := make([]sqlite.SweepResult, len(results))
	for i, r := range results {
		records[i] = sqlite.SweepResult{
			Symbol:         r.Symbol,
			Days:           r.Days,
			Confidence:     r.Confidence,
			RSIOversold:    r.RSIOversold,
			RSIOverbought:  r.RSIOverbought,
			TotalReturnPct: r.TotalReturnPct,
			SharpeRatio:    r.SharpeRatio,
			MaxDrawdownPct: r.MaxDrawdownPct,
			ProfitFactor:   r.ProfitFactor,
			TotalTrades:    r.TotalTrades,
			WinningTrades:  r.WinningTrades,
			WinRatePct:     r.WinRatePct,
		}
		if r.Err != nil {
			records[i].Error = r.Err.Error()
		}
	}

	if err := db.WriteResults(ctx, runID, records); err != nil {
		return fmt.Errorf("failed to save sweep results: %w", err)
	}

	return nil
}
