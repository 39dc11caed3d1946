package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidBar = errors.New("invalid bar")
	ErrUnordered  = errors.New("bars are not in chronological order")
	ErrNoQuote    = errors.New("no quote available")
)

// Bar is a single OHLCV observation. Timestamp is unix time in nanoseconds.
type Bar struct {
	Timestamp int64   `json:"timestamp_ns"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

func (b Bar) Time() time.Time {
	return time.Unix(0, b.Timestamp)
}

func (b Bar) Validate() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite price low=%g open=%g close=%g high=%g", ErrInvalidBar, b.Low, b.Open, b.Close, b.High)
		}
	}

	lo := min(b.Open, b.Close)
	hi := max(b.Open, b.Close)
	if b.Low > lo || hi > b.High {
		return fmt.Errorf("%w: low=%g open=%g close=%g high=%g", ErrInvalidBar, b.Low, b.Open, b.Close, b.High)
	}

	if b.Volume < 0 {
		return fmt.Errorf("%w: negative volume %d", ErrInvalidBar, b.Volume)
	}

	return nil
}

// ValidateBars checks every bar and the chronological order of the sequence.
func ValidateBars(bars []Bar) error {
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("bar %d: %w", i, err)
		}

		if i > 0 && b.Timestamp < bars[i-1].Timestamp {
			return fmt.Errorf("bar %d at %s: %w", i, b.Time().UTC().Format(time.RFC3339), ErrUnordered)
		}
	}

	return nil
}

func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	return closes
}
