package indicator

import "fmt"

// Set drives EMA, RSI and Bollinger from the same price stream.
type Set struct {
	ema *EMA
	rsi *RSI
	bb  *Bollinger
}

type SetConfig struct {
	EMAPeriod int
	RSIPeriod int
	BBPeriod  int
	BBWidth   float64
}

func NewSet(cfg SetConfig) (*Set, error) {
	ema, err := NewEMA(cfg.EMAPeriod)
	if err != nil {
		return nil, fmt.Errorf("failed to create ema: %w", err)
	}

	rsi, err := NewRSI(cfg.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("failed to create rsi: %w", err)
	}

	bb, err := NewBollinger(cfg.BBPeriod, cfg.BBWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to create bollinger bands: %w", err)
	}

	return &Set{ema: &ema, rsi: &rsi, bb: bb}, nil
}

func (s *Set) Update(price float64) Reading {
	return Reading{
		Price: price,
		EMA:   s.ema.Update(price),
		RSI:   s.rsi.Update(price),
		Bands: s.bb.Update(price),
	}
}

// Value returns the latest reading at price without advancing any indicator.
func (s *Set) Value(price float64) Reading {
	return Reading{
		Price: price,
		EMA:   s.ema.Value(),
		RSI:   s.rsi.Value(),
		Bands: s.bb.Value(),
	}
}

func (s *Set) Ready() bool {
	return s.ema.Ready() && s.rsi.Ready() && s.bb.Ready()
}

func (s *Set) Reset() {
	s.ema.Reset()
	s.rsi.Reset()
	s.bb.Reset()
}
