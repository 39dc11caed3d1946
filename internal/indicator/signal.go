package indicator

import (
	"fmt"
	"math"
)

type factor struct {
	weight float64
	value  float64
}

// Confidence blends RSI extremity, band extremity, trend deviation and
// volatility regime into a score in [0.5, 0.95].
func Confidence(r Reading, th Thresholds) float64 {
	factors := []factor{
		{weight: 0.35, value: rsiExtremity(r.RSI, th)},
		{weight: 0.30, value: bandExtremity(r.Price, r.Bands)},
	}
	if r.EMA != 0 {
		factors = append(factors, factor{weight: 0.20, value: math.Min(1, 10*math.Abs(r.Price-r.EMA)/r.EMA)})
	}

	var vol float64
	if r.Bands.Middle > 0 {
		vol = math.Min(1, 20*r.Bands.Width()/r.Bands.Middle)
	}
	factors = append(factors, factor{weight: 0.15, value: vol})

	var sum, totalWeight float64
	for _, f := range factors {
		sum += clamp01(f.value) * f.weight
		totalWeight += f.weight
	}

	return 0.5 + 0.45*(sum/totalWeight)
}

// Evaluate applies the RSI gate and the confidence gate. Band position and
// trend only move the confidence score.
func Evaluate(r Reading, th Thresholds) Signal {
	conf := Confidence(r, th)

	switch {
	case r.RSI < th.Oversold && conf >= th.Confidence:
		return Signal{
			Act:        ActBuy,
			Confidence: conf,
			Reason:     fmt.Sprintf("BUY: RSI=%.1f (oversold<%.0f), confidence=%.0f%%", r.RSI, th.Oversold, conf*100),
		}
	case r.RSI > th.Overbought && conf >= th.Confidence:
		return Signal{
			Act:        ActSell,
			Confidence: conf,
			Reason:     fmt.Sprintf("SELL: RSI=%.1f (overbought>%.0f), confidence=%.0f%%", r.RSI, th.Overbought, conf*100),
		}
	case r.RSI < th.Oversold || r.RSI > th.Overbought:
		return Signal{
			Act:        ActHold,
			Confidence: conf,
			Reason:     fmt.Sprintf("HOLD: RSI=%.1f, confidence=%.0f%% below %.0f%%", r.RSI, conf*100, th.Confidence*100),
		}
	default:
		return Signal{
			Act:        ActHold,
			Confidence: conf,
			Reason:     fmt.Sprintf("HOLD: RSI=%.1f within [%.0f, %.0f]", r.RSI, th.Oversold, th.Overbought),
		}
	}
}

func rsiExtremity(rsi float64, th Thresholds) float64 {
	switch {
	case rsi <= th.Oversold && th.Oversold > 0:
		return (th.Oversold - rsi) / th.Oversold
	case rsi >= th.Overbought && th.Overbought < 100:
		return (rsi - th.Overbought) / (100 - th.Overbought)
	default:
		return 0
	}
}

func bandExtremity(price float64, b Bands) float64 {
	width := b.Width()
	if width <= 0 {
		return 0
	}

	switch {
	case price > b.Upper:
		return (price - b.Upper) / width
	case price < b.Lower:
		return (b.Lower - price) / width
	default:
		return 0
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
