package indicator

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidWidth = errors.New("bollinger band width must be positive")

// Bollinger keeps the last period prices in a ring and reports the population
// mean plus and minus k standard deviations.
type Bollinger struct {
	period int
	k      float64
	window []float64
	head   int
	count  int
}

func NewBollinger(period int, k float64) (*Bollinger, error) {
	if period <= 0 {
		return nil, fmt.Errorf("bollinger: %w: %d", ErrInvalidPeriod, period)
	}
	if k <= 0 {
		return nil, fmt.Errorf("bollinger: %w: %v", ErrInvalidWidth, k)
	}

	return &Bollinger{
		period: period,
		k:      k,
		window: make([]float64, period),
	}, nil
}

func (b *Bollinger) Update(price float64) Bands {
	b.window[b.head] = price
	b.head = (b.head + 1) % b.period
	if b.count < b.period {
		b.count++
	}

	return b.Value()
}

// Value returns the bands for the current window without mutating it.
func (b *Bollinger) Value() Bands {
	if b.count < b.period {
		return Bands{}
	}

	var sum float64
	for _, v := range b.window {
		sum += v
	}
	mean := sum / float64(b.period)

	var sq float64
	for _, v := range b.window {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(b.period))

	return Bands{
		Upper:  mean + b.k*std,
		Middle: mean,
		Lower:  mean - b.k*std,
		Ready:  true,
	}
}

// Next previews the bands that Update(price) would produce.
func (b *Bollinger) Next(price float64) Bands {
	c := b.Clone()
	return c.Update(price)
}

func (b *Bollinger) Ready() bool {
	return b.count == b.period
}

func (b *Bollinger) Clone() *Bollinger {
	c := *b
	c.window = make([]float64, len(b.window))
	copy(c.window, b.window)
	return &c
}

func (b *Bollinger) Reset() {
	clear(b.window)
	b.head = 0
	b.count = 0
}
