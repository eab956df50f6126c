// Package risk derives concrete trade parameters from a scored signal:
// entry offset, the three-level take-profit ladder, stop-loss, position
// sizing with leverage, and the estimated liquidation price. Derivation is
// ATR-anchored and confidence-tiered, with every level clamped against the
// structural readings (Supertrend bands, VWAP, pivot levels, medium EMA)
// already present in the indicator set.
package risk

import (
	"errors"
	"math"

	"github.com/iniduniaku/signaltradingbot/internal/model"
)

var (
	// ErrInsufficientData is returned when the indicator set lacks the
	// readings (primarily ATR) the derivation is anchored on.
	ErrInsufficientData = errors.New("insufficient indicator data for risk derivation")

	// ErrRiskRewardTooLow is returned when the first take-profit does not
	// clear the configured minimum reward ratio. The signal is discarded.
	ErrRiskRewardTooLow = errors.New("risk/reward below configured minimum")
)

// Tier holds the ATR multipliers applied at one confidence level.
type Tier struct {
	EntryATR      float64    `yaml:"entry_atr"`
	TakeProfitATR [3]float64 `yaml:"take_profit_atr"`
	StopATR       float64    `yaml:"stop_atr"`
}

// Config holds account sizing inputs and the per-confidence multiplier
// tiers. HIGH confidence uses a tighter entry offset and a wider profit
// ladder than MEDIUM.
type Config struct {
	AccountBalance  float64 `yaml:"account_balance"`
	RiskPerTradePct float64 `yaml:"risk_per_trade_pct"`
	MaxLeverage     int     `yaml:"max_leverage"`
	MinRiskReward   float64 `yaml:"min_risk_reward"`

	// ClampTolerance is the fraction by which a derived entry may cross a
	// structural level before being nudged back outside it.
	ClampTolerance float64 `yaml:"clamp_tolerance"`

	High   Tier `yaml:"high"`
	Medium Tier `yaml:"medium"`
}

// DefaultConfig returns the standard sizing and multiplier tiers.
func DefaultConfig() Config {
	return Config{
		AccountBalance:  1000,
		RiskPerTradePct: 1.0,
		MaxLeverage:     20,
		MinRiskReward:   2.0,
		ClampTolerance:  0.001,
		High:            Tier{EntryATR: 0.3, TakeProfitATR: [3]float64{2.5, 4.0, 6.0}, StopATR: 1.2},
		Medium:          Tier{EntryATR: 0.5, TakeProfitATR: [3]float64{2.0, 3.2, 4.8}, StopATR: 0.9},
	}
}

// Parameterizer derives RiskParameters for scored signals.
type Parameterizer struct {
	cfg Config
}

// New creates a Parameterizer with the given config.
func New(cfg Config) *Parameterizer {
	return &Parameterizer{cfg: cfg}
}

// Derive computes the full risk parameter set for a signal at the current
// price. It returns ErrInsufficientData when ATR is unavailable and
// ErrRiskRewardTooLow when the first take-profit fails the reward gate; in
// both cases no trade should be created. The returned Assessment carries
// warnings and the aggregate risk level; callers drop EXTREME assessments.
func (p *Parameterizer) Derive(sig *model.Signal, set *model.IndicatorSet, price float64) (*model.RiskParameters, *Assessment, error) {
	if sig == nil || set == nil || price <= 0 || !set.Risk.ATR.Valid || set.Risk.ATR.Value <= 0 {
		return nil, nil, ErrInsufficientData
	}
	atr := set.Risk.ATR.Value
	long := sig.Direction == model.DirectionLong

	tier := p.cfg.Medium
	if sig.Confidence == model.ConfidenceHigh {
		tier = p.cfg.High
	}

	entry := p.deriveEntry(price, atr, tier, set, long)
	tps := p.deriveTakeProfits(entry, atr, tier, set, long)
	stop := p.deriveStop(entry, atr, tier, set, long)

	riskDist := math.Abs(entry - stop)
	if riskDist <= 0 {
		return nil, nil, ErrInsufficientData
	}

	var ratios [3]float64
	for i, tp := range tps {
		ratios[i] = math.Abs(tp-entry) / riskDist
	}
	if ratios[0] < p.cfg.MinRiskReward {
		return nil, nil, ErrRiskRewardTooLow
	}

	pos := p.sizePosition(entry, riskDist)
	liq := liquidationPrice(entry, pos.Leverage, long)

	params := &model.RiskParameters{
		EntryPrice:       entry,
		TakeProfits:      model.TakeProfits{TP1: tps[0], TP2: tps[1], TP3: tps[2]},
		StopLoss:         stop,
		RiskRewardRatios: ratios,
		Position:         pos,
		LiquidationPrice: liq,
	}
	return params, p.assess(params), nil
}

// deriveEntry offsets the entry from the current price by ATR and nudges
// it back when it crosses the active Supertrend band or VWAP by more than
// the tolerance. Only levels on the entry side of the current price clamp.
func (p *Parameterizer) deriveEntry(price, atr float64, tier Tier, set *model.IndicatorSet, long bool) float64 {
	var levels []float64
	if st := set.Trend.Supertrend; st != nil && st.Value > 0 {
		levels = append(levels, st.Value)
	}
	if set.Volume.VWAP.Valid && set.Volume.VWAP.Value > 0 {
		levels = append(levels, set.Volume.VWAP.Value)
	}

	if long {
		entry := price - atr*tier.EntryATR
		for _, l := range levels {
			if l >= price {
				continue
			}
			if floor := l * (1 - p.cfg.ClampTolerance); entry < floor {
				entry = floor
			}
		}
		return entry
	}

	entry := price + atr*tier.EntryATR
	for _, l := range levels {
		if l <= price {
			continue
		}
		if ceil := l * (1 + p.cfg.ClampTolerance); entry > ceil {
			entry = ceil
		}
	}
	return entry
}

// deriveTakeProfits builds the ATR ladder and clamps each level against
// the nearest pivot beyond the previous one, so clamping can never
// collapse the required tp1 < tp2 < tp3 ordering. TP2 is additionally
// clamped against the Supertrend opposite band.
func (p *Parameterizer) deriveTakeProfits(entry, atr float64, tier Tier, set *model.IndicatorSet, long bool) [3]float64 {
	var tps [3]float64
	for i, m := range tier.TakeProfitATR {
		if long {
			tps[i] = entry + atr*m
		} else {
			tps[i] = entry - atr*m
		}
	}

	var pivots []float64
	if lv := set.Risk.Levels; lv != nil {
		if long {
			pivots = lv.Resistance
		} else {
			pivots = lv.Support
		}
	}
	var oppositeBand float64
	if st := set.Trend.Supertrend; st != nil {
		if long {
			oppositeBand = st.UpperBand
		} else {
			oppositeBand = st.LowerBand
		}
	}

	// clamp pulls tp back to the nearest level beyond prev, ignoring
	// candidates that would break the ladder ordering.
	clamp := func(tp, prev float64, candidates []float64) float64 {
		for _, c := range candidates {
			if c <= 0 {
				continue
			}
			if long {
				if c > prev && c < tp {
					tp = c
				}
			} else {
				if c < prev && c > tp {
					tp = c
				}
			}
		}
		return tp
	}

	nearest := func(beyond float64) []float64 {
		// Pivot slices are ordered nearest-first, so the first level past
		// the boundary is the nearest one.
		for _, pv := range pivots {
			if (long && pv > beyond) || (!long && pv < beyond) {
				return []float64{pv}
			}
		}
		return nil
	}

	tps[0] = clamp(tps[0], entry, nearest(entry))
	tps[1] = clamp(tps[1], tps[0], append(nearest(tps[0]), oppositeBand))
	tps[2] = clamp(tps[2], tps[1], nearest(tps[1]))
	return tps
}

// deriveStop places the ATR stop and tightens it toward the entry when
// the active Supertrend band, the nearest pivot on the stop side, or the
// medium EMA sits inside the ATR distance. The closest clamp wins and the
// stop never loosens past its unclamped ATR distance.
func (p *Parameterizer) deriveStop(entry, atr float64, tier Tier, set *model.IndicatorSet, long bool) float64 {
	var stop float64
	if long {
		stop = entry - atr*tier.StopATR
	} else {
		stop = entry + atr*tier.StopATR
	}

	var candidates []float64
	if st := set.Trend.Supertrend; st != nil && st.Value > 0 {
		candidates = append(candidates, st.Value)
	}
	if lv := set.Risk.Levels; lv != nil {
		side := lv.Support
		if !long {
			side = lv.Resistance
		}
		for _, pv := range side {
			if (long && pv < entry) || (!long && pv > entry) {
				candidates = append(candidates, pv)
				break
			}
		}
	}
	if set.Trend.EMAMedium.Valid {
		candidates = append(candidates, set.Trend.EMAMedium.Value)
	}

	for _, c := range candidates {
		if c <= 0 {
			continue
		}
		if long {
			if c < entry && c > stop {
				stop = c
			}
		} else {
			if c > entry && c < stop {
				stop = c
			}
		}
	}
	return stop
}

// sizePosition computes leverage from the price risk fraction and scales
// the base size accordingly.
func (p *Parameterizer) sizePosition(entry, riskDist float64) model.PositionInfo {
	riskAmount := p.cfg.AccountBalance * p.cfg.RiskPerTradePct / 100
	baseSize := riskAmount / riskDist

	priceRisk := riskDist / entry
	lev := int(math.Floor(1 / priceRisk))
	if lev < 1 {
		lev = 1
	}
	if lev > p.cfg.MaxLeverage {
		lev = p.cfg.MaxLeverage
	}

	positionSize := baseSize * float64(lev)
	margin := positionSize * entry / float64(lev)

	return model.PositionInfo{
		PositionSize:   positionSize,
		BaseSize:       baseSize,
		Margin:         margin,
		Leverage:       lev,
		RiskAmount:     riskAmount,
		RiskPercentage: p.cfg.RiskPerTradePct,
	}
}

// liquidationPrice estimates where margin is exhausted. The 0.9 factor
// keeps headroom for fees ahead of the exchange's own liquidation engine.
func liquidationPrice(entry float64, leverage int, long bool) float64 {
	frac := 0.9 / float64(leverage)
	if long {
		return entry * (1 - frac)
	}
	return entry * (1 + frac)
}
