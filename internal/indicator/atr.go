package indicator

import (
	"math"

	"github.com/iniduniaku/signaltradingbot/internal/model"
)

// trueRange returns max(high-low, |high-prevClose|, |low-prevClose|).
func trueRange(c model.Candle, prevClose float64) float64 {
	tr := c.High - c.Low
	if hc := math.Abs(c.High - prevClose); hc > tr {
		tr = hc
	}
	if lc := math.Abs(c.Low - prevClose); lc > tr {
		tr = lc
	}
	return tr
}

// trueRanges computes the true-range series for a candle window. The series
// is one shorter than the window because TR needs the previous close.
func trueRanges(candles []model.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	trs := make([]float64, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		trs[i-1] = trueRange(candles[i], candles[i-1].Close)
	}
	return trs
}

// ATR calculates the Average True Range as the mean of the trailing period
// true-range values. Requires at least period+1 candles; returns (0, false)
// otherwise. The result is always >= 0.
func ATR(candles []model.Candle, period int) (float64, bool) {
	if period <= 0 || len(candles) < period+1 {
		return 0, false
	}

	trs := trueRanges(candles)
	sum := 0.0
	for _, tr := range trs[len(trs)-period:] {
		sum += tr
	}
	return sum / float64(period), true
}
