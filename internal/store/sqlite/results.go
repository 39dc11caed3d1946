package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// SweepResult is one persisted parameter sweep run.
type SweepResult struct {
	Symbol         string
	Days           int
	Confidence     float64
	RSIOversold    float64
	RSIOverbought  float64
	TotalReturnPct float64
	SharpeRatio    *float64
	MaxDrawdownPct *float64
	ProfitFactor   *float64
	TotalTrades    int
	WinningTrades  int
	WinRatePct     float64
	Error          string
}

func (d *DB) WriteResults(ctx context.Context, runID string, results []SweepResult) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sweep_results (
			run_id, symbol, days, confidence, rsi_oversold, rsi_overbought,
			total_return_pct, sharpe_ratio, max_drawdown_pct, profit_factor,
			total_trades, winning_trades, win_rate_pct, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlite prepare results: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		_, err := stmt.ExecContext(ctx, runID, r.Symbol, r.Days, r.Confidence, r.RSIOversold, r.RSIOverbought,
			r.TotalReturnPct, r.SharpeRatio, r.MaxDrawdownPct, r.ProfitFactor,
			r.TotalTrades, r.WinningTrades, r.WinRatePct, r.Error)
		if err != nil {
			return fmt.Errorf("sqlite insert result: %w", err)
		}
	}

	return tx.Commit()
}

// ReadResults returns the results of runID in insertion order.
func (d *DB) ReadResults(ctx context.Context, runID string) ([]SweepResult, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT symbol, days, confidence, rsi_oversold, rsi_overbought,
			total_return_pct, sharpe_ratio, max_drawdown_pct, profit_factor,
			total_trades, winning_trades, win_rate_pct, error
		FROM sweep_results
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite query results: %w", err)
	}
	defer rows.Close()

	var out []SweepResult
	for rows.Next() {
		var r SweepResult
		var sharpe, dd, pf sql.NullFloat64
		err := rows.Scan(&r.Symbol, &r.Days, &r.Confidence, &r.RSIOversold, &r.RSIOverbought,
			&r.TotalReturnPct, &sharpe, &dd, &pf,
			&r.TotalTrades, &r.WinningTrades, &r.WinRatePct, &r.Error)
		if err != nil {
			return nil, fmt.Errorf("sqlite scan result: %w", err)
		}

		r.SharpeRatio = nullable(sharpe)
		r.MaxDrawdownPct = nullable(dd)
		r.ProfitFactor = nullable(pf)
		out = append(out, r)
	}

	return out, rows.Err()
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}

	f := v.Float64
	return &f
}
