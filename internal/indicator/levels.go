package indicator

import (
	"sort"

	"github.com/iniduniaku/signaltradingbot/internal/model"
)

// pivotHighs returns indices whose high exceeds the highs of bars candles
// on each side.
func pivotHighs(candles []model.Candle, bars int) []float64 {
	var out []float64
	for i := bars; i < len(candles)-bars; i++ {
		h := candles[i].High
		isPivot := true
		for j := 1; j <= bars; j++ {
			if candles[i-j].High >= h || candles[i+j].High >= h {
				isPivot = false
				break
			}
		}
		if isPivot {
			out = append(out, h)
		}
	}
	return out
}

// pivotLows returns pivot-low prices, mirroring pivotHighs.
func pivotLows(candles []model.Candle, bars int) []float64 {
	var out []float64
	for i := bars; i < len(candles)-bars; i++ {
		l := candles[i].Low
		isPivot := true
		for j := 1; j <= bars; j++ {
			if candles[i-j].Low <= l || candles[i+j].Low <= l {
				isPivot = false
				break
			}
		}
		if isPivot {
			out = append(out, l)
		}
	}
	return out
}

// SupportResistance extracts pivot-based support and resistance levels
// around the current close. Support lists pivot lows below the close,
// nearest first; resistance lists pivot highs above it, nearest first.
// Requires at least 2*bars+1 candles.
func SupportResistance(candles []model.Candle, bars int) (*model.SupportResistance, bool) {
	if bars < 1 || len(candles) < 2*bars+1 {
		return nil, false
	}

	close := candles[len(candles)-1].Close
	var support, resistance []float64
	for _, p := range pivotLows(candles, bars) {
		if p < close {
			support = append(support, p)
		}
	}
	for _, p := range pivotHighs(candles, bars) {
		if p > close {
			resistance = append(resistance, p)
		}
	}

	// Nearest level first.
	sort.Sort(sort.Reverse(sort.Float64Slice(support)))
	sort.Float64s(resistance)

	return &model.SupportResistance{Support: support, Resistance: resistance}, true
}
