// Package scorer fuses indicator readings into a directional trading
// signal.
//
// Four weighted categories (trend, momentum, volume, futures context) feed
// a long-score and a short-score accumulator. A category whose indicators
// were unavailable contributes to neither score and is excluded from the
// weight denominator, so missing data never dilutes the result toward
// neutral.
package scorer

import (
	"fmt"
	"time"

	"github.com/iniduniaku/signaltradingbot/internal/model"
)

// Config holds category weights and decision thresholds.
type Config struct {
	TrendWeight    float64 `yaml:"trend_weight"`
	MomentumWeight float64 `yaml:"momentum_weight"`
	VolumeWeight   float64 `yaml:"volume_weight"`
	FuturesWeight  float64 `yaml:"futures_weight"`

	MinConfidence  float64 `yaml:"min_confidence"`  // minimum strength to emit a signal
	HighConfidence float64 `yaml:"high_confidence"` // strength for HIGH confidence

	FundingExtreme float64 `yaml:"funding_extreme"` // e.g. 0.0005 = 0.05% per interval
	FundingSoft    float64 `yaml:"funding_soft"`
}

// DefaultConfig returns the standard weights (40/25/20/15) and thresholds.
func DefaultConfig() Config {
	return Config{
		TrendWeight:    40,
		MomentumWeight: 25,
		VolumeWeight:   20,
		FuturesWeight:  15,
		MinConfidence:  65,
		HighConfidence: 80,
		FundingExtreme: 0.0005,
		FundingSoft:    0.0002,
	}
}

// Scorer evaluates indicator sets into signals.
type Scorer struct {
	cfg Config
}

// New creates a Scorer with the given config.
func New(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// categoryScore accumulates one category's contribution.
type categoryScore struct {
	long, short float64
	available   bool
	notes       []string
}

func (c *categoryScore) note(format string, args ...interface{}) {
	c.notes = append(c.notes, fmt.Sprintf(format, args...))
}

// Score evaluates the indicator set for symbol at the given current price.
// Returns nil when neither direction reaches the minimum confidence or when
// no category had usable data. LONG is evaluated before SHORT by fixed
// precedence: if both directions qualify, the LONG signal wins.
func (s *Scorer) Score(symbol string, set *model.IndicatorSet, price float64) *model.Signal {
	if set == nil || price <= 0 {
		return nil
	}

	trend := s.scoreTrend(set, price)
	momentum := s.scoreMomentum(set)
	volume := s.scoreVolume(set, price)
	futures := s.scoreFutures(set)

	var longScore, shortScore, totalWeight float64
	add := func(c categoryScore, weight float64) {
		if !c.available {
			return
		}
		longScore += c.long
		shortScore += c.short
		totalWeight += weight
	}
	add(trend, s.cfg.TrendWeight)
	add(momentum, s.cfg.MomentumWeight)
	add(volume, s.cfg.VolumeWeight)
	add(futures, s.cfg.FuturesWeight)

	if totalWeight == 0 {
		return nil
	}

	longStrength := longScore / totalWeight * 100
	shortStrength := shortScore / totalWeight * 100

	analysis := map[string]model.CategoryAnalysis{
		"trend":    {LongScore: trend.long, ShortScore: trend.short, Weight: s.cfg.TrendWeight, Notes: trend.notes},
		"momentum": {LongScore: momentum.long, ShortScore: momentum.short, Weight: s.cfg.MomentumWeight, Notes: momentum.notes},
		"volume":   {LongScore: volume.long, ShortScore: volume.short, Weight: s.cfg.VolumeWeight, Notes: volume.notes},
		"futures":  {LongScore: futures.long, ShortScore: futures.short, Weight: s.cfg.FuturesWeight, Notes: futures.notes},
	}

	emit := func(dir model.Direction, strength float64) *model.Signal {
		confidence := model.ConfidenceMedium
		if strength >= s.cfg.HighConfidence {
			confidence = model.ConfidenceHigh
		}
		return &model.Signal{
			Symbol:     symbol,
			Direction:  dir,
			Strength:   strength,
			Confidence: confidence,
			Analysis:   analysis,
			CreatedAt:  time.Now().UTC(),
		}
	}

	// Fixed precedence: LONG first.
	if longStrength >= s.cfg.MinConfidence {
		return emit(model.DirectionLong, longStrength)
	}
	if shortStrength >= s.cfg.MinConfidence {
		return emit(model.DirectionShort, shortStrength)
	}
	return nil
}

// scoreTrend awards up to 15 points for EMA stack alignment, up to 15 for
// the supertrend direction with a distance buffer, and up to 10 for market
// structure.
func (s *Scorer) scoreTrend(set *model.IndicatorSet, price float64) categoryScore {
	var c categoryScore
	t := set.Trend

	// strongEMAGap grades the fast/medium divergence: beyond 0.5% the
	// alignment is STRONG, otherwise WEAK.
	const strongEMAGap = 0.005

	if t.EMAFast.Valid && t.EMAMedium.Valid && t.EMASlow.Valid {
		c.available = true
		fast, medium, slow := t.EMAFast.Value, t.EMAMedium.Value, t.EMASlow.Value
		gap := 0.0
		if medium != 0 {
			gap = (fast - medium) / medium
		}
		switch {
		case fast > medium && medium > slow:
			if gap > strongEMAGap {
				c.long += 15
				c.note("EMA stack STRONG bullish (gap %.2f%%)", gap*100)
			} else {
				c.long += 10
				c.note("EMA stack WEAK bullish")
			}
		case fast < medium && medium < slow:
			if -gap > strongEMAGap {
				c.short += 15
				c.note("EMA stack STRONG bearish (gap %.2f%%)", gap*100)
			} else {
				c.short += 10
				c.note("EMA stack WEAK bearish")
			}
		}
	}

	// bandBuffer is the minimum distance from the active band for full
	// supertrend credit.
	const bandBuffer = 0.002

	if st := t.Supertrend; st != nil {
		c.available = true
		if st.Direction == model.TrendBullish {
			if price > st.Value && (price-st.Value)/price >= bandBuffer {
				c.long += 15
				c.note("supertrend bullish, clear of band")
			} else {
				c.long += 8
				c.note("supertrend bullish, near band")
			}
		} else {
			if price < st.Value && (st.Value-price)/price >= bandBuffer {
				c.short += 15
				c.note("supertrend bearish, clear of band")
			} else {
				c.short += 8
				c.note("supertrend bearish, near band")
			}
		}
	}

	if ms := t.Structure; ms != nil {
		c.available = true
		points := 0.0
		switch {
		case ms.Strength > 0.6:
			points = 10
		case ms.Strength > 0.4:
			points = 5
		}
		if points > 0 {
			if ms.Trend == model.TrendBullish {
				c.long += points
				c.note("structure bullish (strength %.2f)", ms.Strength)
			} else {
				c.short += points
				c.note("structure bearish (strength %.2f)", ms.Strength)
			}
		}
	}

	return c
}

// scoreMomentum awards up to 10 points for MFI, 8 for Williams %R and 7
// for CCI. Oversold readings favor LONG, overbought favor SHORT; MFI gives
// partial credit at the softer 40/60 levels.
func (s *Scorer) scoreMomentum(set *model.IndicatorSet) categoryScore {
	var c categoryScore
	m := set.Momentum

	if m.MFI.Valid {
		c.available = true
		switch mfi := m.MFI.Value; {
		case mfi < 20:
			c.long += 10
			c.note("MFI oversold (%.1f)", mfi)
		case mfi < 40:
			c.long += 5
			c.note("MFI soft oversold (%.1f)", mfi)
		case mfi > 80:
			c.short += 10
			c.note("MFI overbought (%.1f)", mfi)
		case mfi > 60:
			c.short += 5
			c.note("MFI soft overbought (%.1f)", mfi)
		}
	}

	if m.WilliamsR.Valid {
		c.available = true
		switch wr := m.WilliamsR.Value; {
		case wr < -80:
			c.long += 8
			c.note("Williams %%R oversold (%.1f)", wr)
		case wr > -20:
			c.short += 8
			c.note("Williams %%R overbought (%.1f)", wr)
		}
	}

	if m.CCI.Valid {
		c.available = true
		switch cci := m.CCI.Value; {
		case cci < -100:
			c.long += 7
			c.note("CCI oversold (%.1f)", cci)
		case cci > 100:
			c.short += 7
			c.note("CCI overbought (%.1f)", cci)
		}
	}

	return c
}

// scoreVolume grades VWAP deviation into bands worth up to 20 points.
// OBV direction is recorded as context only and carries no score weight.
func (s *Scorer) scoreVolume(set *model.IndicatorSet, price float64) categoryScore {
	var c categoryScore
	v := set.Volume

	if v.VWAP.Valid && v.VWAP.Value > 0 {
		c.available = true
		dev := (price - v.VWAP.Value) / v.VWAP.Value * 100
		switch {
		case dev > 2:
			c.long += 20
			c.note("price STRONG_ABOVE vwap (%.2f%%)", dev)
		case dev > 0.5:
			c.long += 12
			c.note("price ABOVE vwap (%.2f%%)", dev)
		case dev < -2:
			c.short += 20
			c.note("price STRONG_BELOW vwap (%.2f%%)", dev)
		case dev < -0.5:
			c.short += 12
			c.note("price BELOW vwap (%.2f%%)", dev)
		default:
			c.note("price NEAR vwap (%.2f%%)", dev)
		}
	}

	if v.OBV.Valid {
		if v.OBV.Value > 0 {
			c.note("OBV positive")
		} else if v.OBV.Value < 0 {
			c.note("OBV negative")
		}
	}

	return c
}

// scoreFutures awards up to 10 points for extreme funding (sign-inverted:
// crowded longs paying shorts is bearish) and up to 5 for a skewed
// liquidation ratio (contrarian: heavy long liquidations are bullish).
func (s *Scorer) scoreFutures(set *model.IndicatorSet) categoryScore {
	var c categoryScore
	f := set.Futures
	if f == nil {
		return c
	}
	c.available = true

	switch rate := f.FundingRate; {
	case rate > s.cfg.FundingExtreme:
		c.short += 10
		c.note("funding extreme positive (%.4f%%)", rate*100)
	case rate > s.cfg.FundingSoft:
		c.short += 5
		c.note("funding elevated positive (%.4f%%)", rate*100)
	case rate < -s.cfg.FundingExtreme:
		c.long += 10
		c.note("funding extreme negative (%.4f%%)", rate*100)
	case rate < -s.cfg.FundingSoft:
		c.long += 5
		c.note("funding elevated negative (%.4f%%)", rate*100)
	}

	switch ratio := f.LiquidationRatio; {
	case ratio > 0.75:
		c.long += 5
		c.note("heavy long liquidations (%.2f)", ratio)
	case ratio < 0.25 && ratio > 0:
		c.short += 5
		c.note("heavy short liquidations (%.2f)", ratio)
	}

	return c
}
