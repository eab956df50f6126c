package indicator

import "github.com/iniduniaku/signaltradingbot/internal/model"

// Compute assembles the full IndicatorSet for a candle window. Every
// reading carries its own availability: a short window leaves the affected
// fields absent instead of zeroed, and the futures group is attached only
// when a snapshot is supplied.
func Compute(candles []model.Candle, futures *model.FuturesSnapshot, cfg Config) *model.IndicatorSet {
	set := &model.IndicatorSet{Futures: futures}
	closes := model.Closes(candles)

	if v, ok := EMA(closes, cfg.EMAFastPeriod); ok {
		set.Trend.EMAFast = model.Float(v)
	}
	if v, ok := EMA(closes, cfg.EMAMediumPeriod); ok {
		set.Trend.EMAMedium = model.Float(v)
	}
	if v, ok := EMA(closes, cfg.EMASlowPeriod); ok {
		set.Trend.EMASlow = model.Float(v)
	}
	if st, ok := Supertrend(candles, cfg.SupertrendPeriod, cfg.SupertrendFactor); ok {
		set.Trend.Supertrend = st
	}
	if ich, ok := Ichimoku(candles); ok {
		set.Trend.Ichimoku = ich
	}
	if ms, ok := MarketStructure(candles, cfg.StructureLookback); ok {
		set.Trend.Structure = ms
	}

	if v, ok := MFI(candles, cfg.MFIPeriod); ok {
		set.Momentum.MFI = model.Float(v)
	}
	if v, ok := WilliamsR(candles, cfg.WilliamsPeriod); ok {
		set.Momentum.WilliamsR = model.Float(v)
	}
	if v, ok := CCI(candles, cfg.CCIPeriod); ok {
		set.Momentum.CCI = model.Float(v)
	}

	if v, ok := VWAP(candles, cfg.VWAPWindow); ok {
		set.Volume.VWAP = model.Float(v)
	}
	if v, ok := OBV(candles); ok {
		set.Volume.OBV = model.Float(v)
	}

	if v, ok := ATR(candles, cfg.ATRPeriod); ok {
		set.Risk.ATR = model.Float(v)
		if last := candles[len(candles)-1].Close; last > 0 {
			set.Risk.Volatility = model.Float(v / last)
		}
	}
	if sr, ok := SupportResistance(candles, cfg.PivotBars); ok {
		set.Risk.Levels = sr
	}

	return set
}
