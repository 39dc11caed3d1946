package portfolio

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return fmt.Sprintf("SIDE_%d", int(s))
	}
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "BUY":
		*s = SideBuy
	case "SELL":
		*s = SideSell
	default:
		return fmt.Errorf("unknown trade side: %q", text)
	}

	return nil
}

type Trade struct {
	Time       time.Time       `json:"time"`
	Side       Side            `json:"side"`
	Price      decimal.Decimal `json:"price"`
	Shares     int64           `json:"shares"`
	Value      decimal.Decimal `json:"value"`
	Confidence float64         `json:"confidence"`
	Reason     string          `json:"reason"`
}

// Portfolio is a long-only cash and share ledger. Orders that cannot be
// covered are logged and skipped.
type Portfolio struct {
	log     *slog.Logger
	account *cashAccount
	shares  int64
	trades  []Trade
}

func New(log *slog.Logger, startingCash decimal.Decimal) *Portfolio {
	return &Portfolio{
		log:     log,
		account: &cashAccount{balance: startingCash},
	}
}

func (p *Portfolio) ExecuteBuy(at time.Time, price float64, shares int64, confidence float64, reason string) bool {
	if !validPrice(price) || shares <= 0 {
		p.log.Warn("buy rejected: invalid order", slog.Float64("price", price), slog.Int64("shares", shares))
		return false
	}

	px := decimal.NewFromFloat(price)
	value := px.Mul(decimal.NewFromInt(shares))
	if err := p.account.Withdraw(value); err != nil {
		p.log.Warn("buy skipped",
			slog.String("cause", err.Error()),
			slog.String("cost", value.String()),
			slog.String("cash", p.account.Balance().String()))
		return false
	}

	p.shares += shares
	p.record(Trade{
		Time:       at,
		Side:       SideBuy,
		Price:      px,
		Shares:     shares,
		Value:      value,
		Confidence: confidence,
		Reason:     reason,
	})

	return true
}

func (p *Portfolio) ExecuteSell(at time.Time, price float64, shares int64, confidence float64, reason string) bool {
	if !validPrice(price) || shares <= 0 {
		p.log.Warn("sell rejected: invalid order", slog.Float64("price", price), slog.Int64("shares", shares))
		return false
	}

	if shares > p.shares {
		p.log.Warn("sell skipped: not enough shares", slog.Int64("requested", shares), slog.Int64("held", p.shares))
		return false
	}

	px := decimal.NewFromFloat(price)
	value := px.Mul(decimal.NewFromInt(shares))
	if err := p.account.Deposit(value); err != nil {
		p.log.Warn("sell skipped", slog.String("cause", err.Error()))
		return false
	}

	p.shares -= shares
	p.record(Trade{
		Time:       at,
		Side:       SideSell,
		Price:      px,
		Shares:     shares,
		Value:      value,
		Confidence: confidence,
		Reason:     reason,
	})

	return true
}

func (p *Portfolio) record(t Trade) {
	p.trades = append(p.trades, t)
	p.log.Debug("trade executed",
		slog.String("side", t.Side.String()),
		slog.Int64("shares", t.Shares),
		slog.String("price", t.Price.String()),
		slog.Float64("confidence", t.Confidence))
}

func (p *Portfolio) Cash() decimal.Decimal {
	return p.account.Balance()
}

func (p *Portfolio) Shares() int64 {
	return p.shares
}

func (p *Portfolio) Trades() []Trade {
	return slices.Clone(p.trades)
}

// TotalValue marks the position at price. A non-finite price values the
// position at zero.
func (p *Portfolio) TotalValue(price float64) decimal.Decimal {
	return p.Cash().Add(markPrice(price).Mul(decimal.NewFromInt(p.shares)))
}

func validPrice(price float64) bool {
	return price > 0 && !math.IsInf(price, 0)
}

func markPrice(price float64) decimal.Decimal {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(price)
}
