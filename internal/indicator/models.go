package indicator

import (
	"errors"
	"fmt"
)

var ErrInvalidPeriod = errors.New("indicator period must be positive")

type Action int

const (
	ActNone Action = iota
	ActBuy
	ActSell
	ActHold
)

func (a Action) String() string {
	switch a {
	case ActNone:
		return "NONE"
	case ActBuy:
		return "BUY"
	case ActSell:
		return "SELL"
	case ActHold:
		return "HOLD"
	default:
		return fmt.Sprintf("ACT_%d", int(a))
	}
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	switch string(text) {
	case "NONE":
		*a = ActNone
	case "BUY":
		*a = ActBuy
	case "SELL":
		*a = ActSell
	case "HOLD":
		*a = ActHold
	default:
		return fmt.Errorf("unknown action: %q", text)
	}

	return nil
}

type Signal struct {
	Act        Action  `json:"action"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Bands is a Bollinger output. Ready is false until the window is full.
type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
	Ready  bool    `json:"ready"`
}

func (b Bands) Width() float64 {
	return b.Upper - b.Lower
}

// Reading is the indicator state observed at one price.
type Reading struct {
	Price float64 `json:"price"`
	EMA   float64 `json:"ema"`
	RSI   float64 `json:"rsi"`
	Bands Bands   `json:"bands"`
}

type Thresholds struct {
	Oversold   float64
	Overbought float64
	Confidence float64
}
