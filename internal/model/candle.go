package model

import (
	"encoding/json"
	"time"
)

// Candle represents one OHLCV candle for a single symbol.
// Candle sequences are ordered ascending by timestamp; the indicator
// library operates on trailing windows of such sequences.
type Candle struct {
	Timestamp time.Time `json:"ts"` // bucket open time (UTC)
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// TypicalPrice returns (H+L+C)/3, the price used by VWAP, MFI and CCI.
func (c Candle) TypicalPrice() float64 {
	return (c.High + c.Low + c.Close) / 3.0
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// Closes extracts the close series from a candle window.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts the high series from a candle window.
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts the low series from a candle window.
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

// Ticker is a point-in-time price snapshot for a symbol.
type Ticker struct {
	Last        float64 `json:"last"`
	QuoteVolume float64 `json:"quote_volume"`
	Percentage  float64 `json:"percentage"` // 24h change in percent
}
