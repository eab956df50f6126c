package indicator

import "github.com/iniduniaku/signaltradingbot/internal/model"

// midpoint returns (highestHigh + lowestLow) / 2 over the trailing n candles.
func midpoint(candles []model.Candle, n int) float64 {
	window := candles[len(candles)-n:]
	highest := window[0].High
	lowest := window[0].Low
	for _, c := range window[1:] {
		if c.High > highest {
			highest = c.High
		}
		if c.Low < lowest {
			lowest = c.Low
		}
	}
	return (highest + lowest) / 2
}

// Ichimoku computes the Ichimoku line set: conversion (9-period midpoint),
// base (26-period midpoint), leading span A (their average), leading span B
// (52-period midpoint) and the lagging span (current close). Requires at
// least 52 candles.
func Ichimoku(candles []model.Candle) (*model.Ichimoku, bool) {
	if len(candles) < 52 {
		return nil, false
	}

	conversion := midpoint(candles, 9)
	base := midpoint(candles, 26)
	return &model.Ichimoku{
		Conversion: conversion,
		Base:       base,
		SpanA:      (conversion + base) / 2,
		SpanB:      midpoint(candles, 52),
		Lagging:    candles[len(candles)-1].Close,
	}, true
}
