package indicator

import "fmt"

// EMA is an exponential moving average seeded with the first observed price.
// The zero value is not usable, construct it with NewEMA.
type EMA struct {
	alpha float64
	value float64
	ready bool
}

func NewEMA(period int) (EMA, error) {
	if period <= 0 {
		return EMA{}, fmt.Errorf("ema: %w: %d", ErrInvalidPeriod, period)
	}

	return EMA{alpha: 2.0 / (float64(period) + 1)}, nil
}

// Next returns the state after observing price and the resulting average.
func (e EMA) Next(price float64) (EMA, float64) {
	if !e.ready {
		e.value = price
		e.ready = true
		return e, e.value
	}

	e.value = e.alpha*price + (1-e.alpha)*e.value
	return e, e.value
}

func (e *EMA) Update(price float64) float64 {
	var v float64
	*e, v = e.Next(price)
	return v
}

func (e EMA) Value() float64 {
	return e.value
}

func (e EMA) Ready() bool {
	return e.ready
}

func (e *EMA) Reset() {
	e.value = 0
	e.ready = false
}
