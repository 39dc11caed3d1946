package portfolio

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

const defaultPeriodsPerYear = 252

// Valuation is the marked-to-market portfolio value at one point of a run.
type Valuation struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

type MetricsOptions struct {
	RiskFreeRate   float64
	PeriodsPerYear float64
}

// Cycle is the realized outcome of one SELL against the running average cost.
type Cycle struct {
	Time     time.Time       `json:"time"`
	Shares   int64           `json:"shares"`
	Proceeds decimal.Decimal `json:"proceeds"`
	Cost     decimal.Decimal `json:"cost"`
	PnL      decimal.Decimal `json:"pnl"`
	Win      bool            `json:"win"`
}

type Metrics struct {
	StartingCapital      decimal.Decimal `json:"starting_capital"`
	EndingCapital        decimal.Decimal `json:"ending_capital"`
	TotalReturnPct       float64         `json:"total_return_pct"`
	AnnualReturnPct      *float64        `json:"annual_return_pct"`
	MaxCapital           float64         `json:"max_capital"`
	CurrentPositionValue decimal.Decimal `json:"current_position_value"`
	MaxDrawdownPct       *float64        `json:"max_drawdown_pct"`
	SharpeRatio          *float64        `json:"sharpe_ratio"`
	TotalTrades          int             `json:"total_trades"`
	CompletedCycles      int             `json:"completed_cycles"`
	WinningTrades        int             `json:"winning_trades"`
	LosingTrades         int             `json:"losing_trades"`
	WinRatePct           float64         `json:"win_rate_pct"`
	AvgWin               float64         `json:"avg_win"`
	AvgLoss              float64         `json:"avg_loss"`
	ProfitFactor         *float64        `json:"profit_factor"`
	RealizedPnL          decimal.Decimal `json:"realized_pnl"`
	Cycles               []Cycle         `json:"cycles"`
}

type ledger interface {
	Cash() decimal.Decimal
	Shares() int64
	Trades() []Trade
}

// CalculateMetrics derives performance statistics from a finished run. It
// does not modify p, so repeated calls on the same inputs are equal.
func CalculateMetrics(p ledger, terminalPrice float64, startingCapital decimal.Decimal, valuations []Valuation, opts MetricsOptions) Metrics {
	position := markPrice(terminalPrice).Mul(decimal.NewFromInt(p.Shares()))
	ending := p.Cash().Add(position)

	m := Metrics{
		StartingCapital:      startingCapital,
		EndingCapital:        ending,
		CurrentPositionValue: position,
		RealizedPnL:          decimal.Zero,
	}

	if !startingCapital.IsZero() {
		m.TotalReturnPct, _ = ending.Sub(startingCapital).Div(startingCapital).Mul(decimal.NewFromInt(100)).Float64()
	}

	trades := p.Trades()
	m.TotalTrades = len(trades)
	m.Cycles = cycles(trades)

	var wins, losses decimal.Decimal
	for _, c := range m.Cycles {
		m.RealizedPnL = m.RealizedPnL.Add(c.PnL)
		if c.Win {
			m.WinningTrades++
			wins = wins.Add(c.PnL)
		} else {
			m.LosingTrades++
			losses = losses.Add(c.PnL.Neg())
		}
	}
	m.CompletedCycles = len(m.Cycles)

	if m.CompletedCycles > 0 {
		m.WinRatePct = float64(m.WinningTrades) / float64(m.CompletedCycles) * 100
	}
	if m.WinningTrades > 0 {
		m.AvgWin, _ = wins.Div(decimal.NewFromInt(int64(m.WinningTrades))).Float64()
	}
	if m.LosingTrades > 0 {
		m.AvgLoss, _ = losses.Div(decimal.NewFromInt(int64(m.LosingTrades))).Float64()
	}
	if losses.IsPositive() {
		pf, _ := wins.Div(losses).Float64()
		m.ProfitFactor = &pf
	}

	start, _ := startingCapital.Float64()
	end, _ := ending.Float64()
	m.MaxCapital = math.Max(start, end)
	for _, v := range valuations {
		m.MaxCapital = math.Max(m.MaxCapital, v.Value)
	}

	m.MaxDrawdownPct = maxDrawdown(start, valuations)
	m.SharpeRatio = sharpe(valuations, opts)
	m.AnnualReturnPct = annualReturn(start, end, valuations)

	return m
}

func cycles(trades []Trade) []Cycle {
	var out []Cycle
	cost := decimal.Zero
	var held int64

	for _, t := range trades {
		switch t.Side {
		case SideBuy:
			cost = cost.Add(t.Value)
			held += t.Shares
		case SideSell:
			if held <= 0 {
				continue
			}

			sold := min(t.Shares, held)
			realized := cost
			if sold < held {
				realized = cost.Mul(decimal.NewFromInt(sold)).Div(decimal.NewFromInt(held))
			}
			proceeds := t.Price.Mul(decimal.NewFromInt(sold))
			pnl := proceeds.Sub(realized)

			out = append(out, Cycle{
				Time:     t.Time,
				Shares:   sold,
				Proceeds: proceeds,
				Cost:     realized,
				PnL:      pnl,
				Win:      pnl.IsPositive(),
			})

			cost = cost.Sub(realized)
			held -= sold
		}
	}

	return out
}

func maxDrawdown(start float64, valuations []Valuation) *float64 {
	if len(valuations) == 0 {
		return nil
	}

	peak := start
	dd := 0.0
	for _, v := range valuations {
		peak = math.Max(peak, v.Value)
		if peak <= 0 {
			continue
		}
		dd = math.Max(dd, (peak-v.Value)/peak*100)
	}

	return &dd
}

func sharpe(valuations []Valuation, opts MetricsOptions) *float64 {
	ppy := opts.PeriodsPerYear
	if ppy <= 0 {
		ppy = defaultPeriodsPerYear
	}

	returns := make([]float64, 0, len(valuations))
	for i := 1; i < len(valuations); i++ {
		prev := valuations[i-1].Value
		if prev == 0 {
			continue
		}
		returns = append(returns, valuations[i].Value/prev-1)
	}
	if len(returns) < 2 {
		return nil
	}

	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return nil
	}

	s := (mean - opts.RiskFreeRate/ppy) / std * math.Sqrt(ppy)
	return &s
}

func annualReturn(start, end float64, valuations []Valuation) *float64 {
	if len(valuations) < 2 || start <= 0 || end < 0 {
		return nil
	}

	span := valuations[len(valuations)-1].Time.Sub(valuations[0].Time)
	years := span.Hours() / (365.25 * 24)
	if years <= 0 {
		return nil
	}

	r := (math.Pow(end/start, 1/years) - 1) * 100
	return &r
}
