package indicator

import (
	"math"

	"github.com/iniduniaku/signaltradingbot/internal/model"
)

// MFI calculates the Money Flow Index over the trailing period: the ratio
// of positive to negative money flow (typical price * volume, signed by the
// direction of the typical-price change) mapped to 0..100. Returns 100 when
// no negative flow was observed. Requires at least period candles.
func MFI(candles []model.Candle, period int) (float64, bool) {
	if period <= 1 || len(candles) < period {
		return 0, false
	}

	window := candles[len(candles)-period:]
	var positive, negative float64
	prevTP := window[0].TypicalPrice()
	for _, c := range window[1:] {
		tp := c.TypicalPrice()
		flow := tp * c.Volume
		switch {
		case tp > prevTP:
			positive += flow
		case tp < prevTP:
			negative += flow
		}
		prevTP = tp
	}

	if negative == 0 {
		return 100, true
	}
	ratio := positive / negative
	return 100 - (100 / (1 + ratio)), true
}

// WilliamsR calculates Williams %R over the trailing period:
// (highestHigh - close) / (highestHigh - lowestLow) * -100, in -100..0.
// Returns 0 when the high/low range is zero. Requires at least period
// candles.
func WilliamsR(candles []model.Candle, period int) (float64, bool) {
	if period <= 0 || len(candles) < period {
		return 0, false
	}

	window := candles[len(candles)-period:]
	highest := window[0].High
	lowest := window[0].Low
	for _, c := range window[1:] {
		if c.High > highest {
			highest = c.High
		}
		if c.Low < lowest {
			lowest = c.Low
		}
	}

	if highest == lowest {
		return 0, true
	}
	close := window[len(window)-1].Close
	return (highest - close) / (highest - lowest) * -100, true
}

// CCI calculates the Commodity Channel Index over the trailing period:
// (typicalPrice - SMA) / (0.015 * meanAbsoluteDeviation). Returns 0 when
// the deviation is zero. Requires at least period candles.
func CCI(candles []model.Candle, period int) (float64, bool) {
	if period <= 0 || len(candles) < period {
		return 0, false
	}

	window := candles[len(candles)-period:]
	tps := make([]float64, len(window))
	sum := 0.0
	for i, c := range window {
		tps[i] = c.TypicalPrice()
		sum += tps[i]
	}
	sma := sum / float64(period)

	dev := 0.0
	for _, tp := range tps {
		dev += math.Abs(tp - sma)
	}
	dev /= float64(period)
	if dev == 0 {
		return 0, true
	}

	return (tps[len(tps)-1] - sma) / (0.015 * dev), true
}
