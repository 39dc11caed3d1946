package market

import "github.com/shopspring/decimal"

// FixedNotionalScaler targets the same dollar exposure on every order.
type FixedNotionalScaler struct {
	Notional decimal.Decimal
}

func (s *FixedNotionalScaler) GetShares(price float64, confidence float64) int64 {
	return sharesFor(s.Notional, price)
}

// ConfidenceScaler scales the notional linearly with signal confidence.
type ConfidenceScaler struct {
	Notional decimal.Decimal
	MaxScale float64
}

func (s *ConfidenceScaler) GetShares(price float64, confidence float64) int64 {
	size := s.Notional.Mul(decimal.NewFromFloat(confidence * s.MaxScale))
	return sharesFor(size, price)
}

func sharesFor(notional decimal.Decimal, price float64) int64 {
	if price <= 0 || !notional.IsPositive() {
		return 0
	}

	return notional.Div(decimal.NewFromFloat(price)).Floor().IntPart()
}
