package agent

import (
	"fmt"
	"io"
	"text/tabwriter"
)

const recentTrades = 10

func optional(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}

// PrintOutcome renders the metrics of one backtest and its most recent trades.
func PrintOutcome(w io.Writer, o Outcome) error {
	m := o.Metrics
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Symbol:\t%s\n", o.Symbol)
	fmt.Fprintf(tw, "Bars:\t%d\n", o.Bars)
	fmt.Fprintf(tw, "Starting capital:\t%s\n", m.StartingCapital.StringFixed(2))
	fmt.Fprintf(tw, "Ending capital:\t%s\n", m.EndingCapital.StringFixed(2))
	fmt.Fprintf(tw, "Total return:\t%.2f%%\n", m.TotalReturnPct)
	fmt.Fprintf(tw, "Annual return:\t%s\n", optional(m.AnnualReturnPct, "%.2f%%"))
	fmt.Fprintf(tw, "Max capital:\t%.2f\n", m.MaxCapital)
	fmt.Fprintf(tw, "Open position:\t%s\n", m.CurrentPositionValue.StringFixed(2))
	fmt.Fprintf(tw, "Max drawdown:\t%s\n", optional(m.MaxDrawdownPct, "%.2f%%"))
	fmt.Fprintf(tw, "Sharpe ratio:\t%s\n", optional(m.SharpeRatio, "%.3f"))
	fmt.Fprintf(tw, "Trades:\t%d\n", m.TotalTrades)
	fmt.Fprintf(tw, "Completed cycles:\t%d (%d won, %d lost)\n", m.CompletedCycles, m.WinningTrades, m.LosingTrades)
	fmt.Fprintf(tw, "Win rate:\t%.1f%%\n", m.WinRatePct)
	fmt.Fprintf(tw, "Avg win / loss:\t%.2f / %.2f\n", m.AvgWin, m.AvgLoss)
	fmt.Fprintf(tw, "Profit factor:\t%s\n", optional(m.ProfitFactor, "%.3f"))
	fmt.Fprintf(tw, "Realized P&L:\t%s\n", m.RealizedPnL.StringFixed(2))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(o.Trades) == 0 {
		return nil
	}

	fmt.Fprintf(w, "\nLast %d trades:\n", min(recentTrades, len(o.Trades)))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSIDE\tSHARES\tPRICE\tVALUE\tCONF")
	for _, t := range o.Trades[max(0, len(o.Trades)-recentTrades):] {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%.2f\n",
			t.Time.Format("2006-01-02 15:04"), t.Side, t.Shares,
			t.Price.StringFixed(2), t.Value.StringFixed(2), t.Confidence)
	}
	return tw.Flush()
}

// PrintTop renders the n best successful sweep results.
func PrintTop(w io.Writer, results []SweepResult, n int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSYMBOL\tDAYS\tCONF\tRSI\tRETURN\tSHARPE\tMAX DD\tTRADES\tWIN RATE\tPF")
	for i, r := range Top(results, n) {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f\t%.0f/%.0f\t%.2f%%\t%s\t%s\t%d\t%.1f%%\t%s\n",
			i+1, r.Symbol, r.Days, r.Confidence, r.RSIOversold, r.RSIOverbought,
			r.TotalReturnPct, optional(r.SharpeRatio, "%.3f"), optional(r.MaxDrawdownPct, "%.2f%%"),
			r.TotalTrades, r.WinRatePct, optional(r.ProfitFactor, "%.3f"))
	}
	return tw.Flush()
}

func PrintSignal(w io.Writer, symbol string, s BarSignal) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Symbol:\t%s\n", symbol)
	fmt.Fprintf(tw, "Price:\t%.2f\n", s.Price)
	fmt.Fprintf(tw, "EMA:\t%.2f\n", s.Reading.EMA)
	fmt.Fprintf(tw, "RSI:\t%.1f\n", s.Reading.RSI)
	if s.Reading.Bands.Ready {
		fmt.Fprintf(tw, "Bollinger:\t%.2f / %.2f / %.2f\n", s.Reading.Bands.Lower, s.Reading.Bands.Middle, s.Reading.Bands.Upper)
	}
	fmt.Fprintf(tw, "Action:\t%s\n", s.Signal.Act)
	fmt.Fprintf(tw, "Confidence:\t%.0f%%\n", s.Signal.Confidence*100)
	fmt.Fprintf(tw, "Reason:\t%s\n", s.Signal.Reason)
	return tw.Flush()
}
