package indicator

import "fmt"

const neutralRSI = 50.0

// RSI smooths gains and losses with two EMAs of the same period.
type RSI struct {
	gains   EMA
	losses  EMA
	prev    float64
	current float64
	ready   bool
}

func NewRSI(period int) (RSI, error) {
	gains, err := NewEMA(period)
	if err != nil {
		return RSI{}, fmt.Errorf("rsi: %w", err)
	}

	return RSI{
		gains:   gains,
		losses:  gains,
		current: neutralRSI,
	}, nil
}

// Next returns the state after observing price and the resulting RSI in [0, 100].
func (r RSI) Next(price float64) (RSI, float64) {
	if !r.ready {
		r.prev = price
		r.ready = true
		return r, r.current
	}

	delta := price - r.prev
	gain := max(delta, 0)
	loss := max(-delta, 0)

	var avgGain, avgLoss float64
	r.gains, avgGain = r.gains.Next(gain)
	r.losses, avgLoss = r.losses.Next(loss)

	switch {
	case avgGain == 0 && avgLoss == 0:
		r.current = neutralRSI
	case avgLoss == 0:
		r.current = 100
	default:
		rs := avgGain / avgLoss
		r.current = 100 - 100/(1+rs)
	}

	r.prev = price
	return r, r.current
}

func (r *RSI) Update(price float64) float64 {
	var v float64
	*r, v = r.Next(price)
	return v
}

func (r RSI) Value() float64 {
	return r.current
}

// Ready reports whether a reference price has been seen.
func (r RSI) Ready() bool {
	return r.ready
}

func (r *RSI) Reset() {
	r.gains.Reset()
	r.losses.Reset()
	r.prev = 0
	r.current = neutralRSI
	r.ready = false
}
