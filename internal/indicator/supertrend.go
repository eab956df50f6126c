package indicator

import "github.com/iniduniaku/signaltradingbot/internal/model"

// SupertrendOut is the indicator result: the active band, the flip
// direction, and both final bands.
type SupertrendOut = model.Supertrend

// Supertrend computes the ATR-band trend indicator. Basic bands are placed
// at (high+low)/2 +/- factor*ATR and then ratcheted: a band only moves
// toward price, never widens against the prevailing trend. Once the close
// crosses the active band the direction flips and the opposite band becomes
// active. Direction flips at most once per candle.
//
// Requires at least period+10 candles; returns (nil, false) otherwise.
func Supertrend(candles []model.Candle, period int, factor float64) (*model.Supertrend, bool) {
	if period <= 0 || len(candles) < period+10 {
		return nil, false
	}

	trs := trueRanges(candles)

	// Rolling simple-mean ATR, first available at candle index = period.
	atrAt := func(i int) float64 {
		sum := 0.0
		for _, tr := range trs[i-period : i] {
			sum += tr
		}
		return sum / float64(period)
	}

	// Seed at the first candle with a full ATR window.
	start := period
	hl2 := (candles[start].High + candles[start].Low) / 2
	atr := atrAt(start)
	finalUpper := hl2 + factor*atr
	finalLower := hl2 - factor*atr
	dir := model.TrendBullish
	if candles[start].Close < hl2 {
		dir = model.TrendBearish
	}

	for i := start + 1; i < len(candles); i++ {
		hl2 = (candles[i].High + candles[i].Low) / 2
		atr = atrAt(i)
		basicUpper := hl2 + factor*atr
		basicLower := hl2 - factor*atr
		prevClose := candles[i-1].Close

		// Ratchet: bands only tighten toward price unless the previous
		// close already broke through them.
		if basicUpper < finalUpper || prevClose > finalUpper {
			finalUpper = basicUpper
		}
		if basicLower > finalLower || prevClose < finalLower {
			finalLower = basicLower
		}

		close := candles[i].Close
		if dir == model.TrendBullish {
			if close < finalLower {
				dir = model.TrendBearish
				finalUpper = basicUpper
			}
		} else {
			if close > finalUpper {
				dir = model.TrendBullish
				finalLower = basicLower
			}
		}
	}

	st := &model.Supertrend{
		Direction: dir,
		UpperBand: finalUpper,
		LowerBand: finalLower,
	}
	if dir == model.TrendBullish {
		st.Value = finalLower
	} else {
		st.Value = finalUpper
	}
	return st, true
}
