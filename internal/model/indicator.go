package model

import "time"

// Trend labels the direction of a trend-following reading.
type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
)

// OptFloat is an optional float64 reading. Valid is false when the
// underlying window was too short to compute the value. Scoring code must
// check Valid rather than treat the zero value as a real reading.
type OptFloat struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Float wraps a computed value into a valid OptFloat.
func Float(v float64) OptFloat { return OptFloat{Value: v, Valid: true} }

// Supertrend is the ATR-band trend indicator reading.
type Supertrend struct {
	Value     float64 `json:"value"` // active band price
	Direction Trend   `json:"direction"`
	UpperBand float64 `json:"upper_band"`
	LowerBand float64 `json:"lower_band"`
}

// Ichimoku holds the five Ichimoku lines.
type Ichimoku struct {
	Conversion float64 `json:"conversion"` // tenkan-sen, 9-period midpoint
	Base       float64 `json:"base"`       // kijun-sen, 26-period midpoint
	SpanA      float64 `json:"span_a"`
	SpanB      float64 `json:"span_b"`
	Lagging    float64 `json:"lagging"` // chikou, current close
}

// MarketStructure summarises swing-point structure over a lookback window.
type MarketStructure struct {
	Trend    Trend   `json:"trend"`
	Strength float64 `json:"strength"` // 0..1
}

// SupportResistance lists pivot levels below (support) and above
// (resistance) the current price, nearest level first.
type SupportResistance struct {
	Support    []float64 `json:"support"`
	Resistance []float64 `json:"resistance"`
}

// FuturesSnapshot carries futures-context data for a symbol. The snapshot
// is cached upstream (~5 min) and may be entirely absent from an
// IndicatorSet when the futures collaborator is unavailable.
type FuturesSnapshot struct {
	FundingRate      float64   `json:"funding_rate"`
	MarkPrice        float64   `json:"mark_price"`
	OpenInterest     float64   `json:"open_interest"`
	LiquidationRatio float64   `json:"liquidation_ratio"` // share of long liquidations, 0..1
	FetchedAt        time.Time `json:"fetched_at"`
}

// TrendIndicators groups the trend category readings.
type TrendIndicators struct {
	EMAFast    OptFloat         `json:"ema_fast"`
	EMAMedium  OptFloat         `json:"ema_medium"`
	EMASlow    OptFloat         `json:"ema_slow"`
	Supertrend *Supertrend      `json:"supertrend,omitempty"`
	Ichimoku   *Ichimoku        `json:"ichimoku,omitempty"`
	Structure  *MarketStructure `json:"structure,omitempty"`
}

// MomentumIndicators groups the momentum oscillators.
type MomentumIndicators struct {
	MFI       OptFloat `json:"mfi"`
	WilliamsR OptFloat `json:"williams_r"`
	CCI       OptFloat `json:"cci"`
}

// VolumeIndicators groups volume-derived readings.
type VolumeIndicators struct {
	VWAP OptFloat `json:"vwap"`
	OBV  OptFloat `json:"obv"`
}

// RiskIndicators groups volatility and level readings used by the risk
// parameterizer.
type RiskIndicators struct {
	ATR        OptFloat           `json:"atr"`
	Volatility OptFloat           `json:"volatility"` // ATR as a fraction of price
	Levels     *SupportResistance `json:"levels,omitempty"`
}

// IndicatorSet is the full set of optional indicator readings computed from
// one candle window. Any field may be absent when the window is too short;
// absence propagates into scoring instead of defaulting to zero.
type IndicatorSet struct {
	Trend    TrendIndicators    `json:"trend"`
	Momentum MomentumIndicators `json:"momentum"`
	Volume   VolumeIndicators   `json:"volume"`
	Futures  *FuturesSnapshot   `json:"futures,omitempty"`
	Risk     RiskIndicators     `json:"risk"`
}
