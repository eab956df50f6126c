package indicator

import "github.com/iniduniaku/signaltradingbot/internal/model"

// MarketStructure classifies swing structure over the trailing lookback
// candles by counting higher-highs/higher-lows (bullish) against
// lower-lows/lower-highs (bearish) between consecutive candles. Trend is
// BULLISH when bullish counts exceed bearish counts, BEARISH otherwise;
// strength is |bullish-bearish| / (lookback-1). Requires at least lookback
// candles.
func MarketStructure(candles []model.Candle, lookback int) (*model.MarketStructure, bool) {
	if lookback < 2 || len(candles) < lookback {
		return nil, false
	}

	window := candles[len(candles)-lookback:]
	bullish, bearish := 0, 0
	for i := 1; i < len(window); i++ {
		if window[i].High > window[i-1].High {
			bullish++ // higher high
		}
		if window[i].Low > window[i-1].Low {
			bullish++ // higher low
		}
		if window[i].Low < window[i-1].Low {
			bearish++ // lower low
		}
		if window[i].High < window[i-1].High {
			bearish++ // lower high
		}
	}

	trend := model.TrendBullish
	if bearish > bullish {
		trend = model.TrendBearish
	}
	diff := bullish - bearish
	if diff < 0 {
		diff = -diff
	}
	strength := float64(diff) / float64(lookback-1)
	if strength > 1 {
		strength = 1
	}
	return &model.MarketStructure{
		Trend:    trend,
		Strength: strength,
	}, true
}
