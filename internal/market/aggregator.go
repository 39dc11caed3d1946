package market

import (
	"time"
)

type IdentityAggregator struct {
}

func (a *IdentityAggregator) Aggregate(bars <-chan Bar) <-chan Bar {
	return bars
}

// IntervalAggregator merges consecutive bars of BarDuration into bars spanning Interval.
type IntervalAggregator struct {
	BarDuration time.Duration
	Interval    time.Duration
}

func (a *IntervalAggregator) Aggregate(bars <-chan Bar) <-chan Bar {
	res := make(chan Bar)
	go func() {
		defer close(res)

		var cur *Bar
		var end time.Time
		for b := range bars {
			t := b.Time()
			if cur != nil && !t.Before(end) {
				res <- *cur
				cur = nil
			}

			if cur == nil {
				end = t.Truncate(a.Interval).Add(a.Interval)
				cur = &Bar{
					Timestamp: b.Timestamp,
					Open:      b.Open,
					High:      b.High,
					Low:       b.Low,
				}
			}

			cur.Close = b.Close
			cur.High = max(cur.High, b.High)
			cur.Low = min(cur.Low, b.Low)
			cur.Volume += b.Volume

			bEnd := t.Add(a.BarDuration)
			if !bEnd.Before(end) {
				res <- *cur
				cur = nil
			}
		}

		if cur != nil {
			res <- *cur
		}
	}()

	return res
}

type aggregator interface {
	Aggregate(bars <-chan Bar) <-chan Bar
}

// AggregateAll runs a slice of bars through an aggregator and collects the output.
func AggregateAll(a aggregator, bars []Bar) []Bar {
	in := make(chan Bar)
	go func() {
		defer close(in)
		for _, b := range bars {
			in <- b
		}
	}()

	var out []Bar
	for b := range a.Aggregate(in) {
		out = append(out, b)
	}

	return out
}
