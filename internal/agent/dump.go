package agent

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gamma-omg/quantlab/internal/market"
)

type CsvBarsDump struct {
	w           *csv.Writer
	writeHeader bool
}

// NewCsvBarsDump writes bars in the layout the CSV data source reads back.
func NewCsvBarsDump(w io.Writer) *CsvBarsDump {
	return &CsvBarsDump{csv.NewWriter(w), true}
}

func (d *CsvBarsDump) Dump(bars ...market.Bar) error {
	if d.writeHeader {
		if err := d.w.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
			return fmt.Errorf("failed to write bars dump csv header: %w", err)
		}
		d.writeHeader = false
	}

	for _, bar := range bars {
		err := d.w.Write([]string{
			strconv.FormatInt(bar.Time().Unix(), 10),
			formatFloat(bar.Open),
			formatFloat(bar.High),
			formatFloat(bar.Low),
			formatFloat(bar.Close),
			strconv.FormatInt(bar.Volume, 10)})

		if err != nil {
			return fmt.Errorf("failed to dump bar: %w", err)
		}
	}

	d.w.Flush()
	return d.w.Error()
}

func DumpBarsToFile(path string, bars []market.Bar) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create bars dump: %w", err)
	}

	if err := NewCsvBarsDump(f).Dump(bars...); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

var sweepHeader = []string{
	"Symbol", "Days", "Confidence", "RSI_Oversold", "RSI_Overbought",
	"Total_Return", "Sharpe_Ratio", "Max_Drawdown", "Total_Trades",
	"Winning_Trades", "Win_Rate", "Profit_Factor", "Error",
}

// WriteSweepCsv writes one row per result. Undefined ratios become empty cells.
func WriteSweepCsv(w io.Writer, results []SweepResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sweepHeader); err != nil {
		return fmt.Errorf("failed to write sweep csv header: %w", err)
	}

	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}

		err := cw.Write([]string{
			r.Symbol,
			strconv.Itoa(r.Days),
			formatFloat(r.Confidence),
			formatFloat(r.RSIOversold),
			formatFloat(r.RSIOverbought),
			strconv.FormatFloat(r.TotalReturnPct, 'f', 2, 64),
			formatOptional(r.SharpeRatio),
			formatOptional(r.MaxDrawdownPct),
			strconv.Itoa(r.TotalTrades),
			strconv.Itoa(r.WinningTrades),
			strconv.FormatFloat(r.WinRatePct, 'f', 1, 64),
			formatOptional(r.ProfitFactor),
			errText,
		})
		if err != nil {
			return fmt.Errorf("failed to write sweep result: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func WriteSweepCsvToFile(path string, results []SweepResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create sweep csv: %w", err)
	}

	if err := WriteSweepCsv(f, results); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 3, 64)
}
