package indicator

import "github.com/iniduniaku/signaltradingbot/internal/model"

// VWAP calculates the Volume-Weighted Average Price of typical prices
// (H+L+C)/3 over the window. Requires at least window candles; the trailing
// window of that size is used. Returns (0, false) when the window is too
// short or carries no volume.
func VWAP(candles []model.Candle, window int) (float64, bool) {
	if window <= 0 || len(candles) < window {
		return 0, false
	}

	var tpv, vol float64
	for _, c := range candles[len(candles)-window:] {
		tpv += c.TypicalPrice() * c.Volume
		vol += c.Volume
	}
	if vol == 0 {
		return 0, false
	}
	return tpv / vol, true
}

// OBV calculates On-Balance Volume over the window: volume is added on
// up-closes and subtracted on down-closes. Requires at least 2 candles.
// OBV is recorded as directional context only; its absolute level is not
// comparable across windows.
func OBV(candles []model.Candle) (float64, bool) {
	if len(candles) < 2 {
		return 0, false
	}

	obv := 0.0
	for i := 1; i < len(candles); i++ {
		switch {
		case candles[i].Close > candles[i-1].Close:
			obv += candles[i].Volume
		case candles[i].Close < candles[i-1].Close:
			obv -= candles[i].Volume
		}
	}
	return obv, true
}
