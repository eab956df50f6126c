// Package indicator provides technical indicator calculations over candle
// windows.
//
// All functions are pure: they read a trailing window of candles and return
// a value plus an availability flag. When the window is shorter than the
// indicator's minimum requirement the flag is false and the value must not
// be used; callers propagate absence instead of defaulting to zero.
// Numeric edge cases (zero ranges, zero deviation) degrade to the
// documented fallback value rather than returning NaN or Inf.
package indicator

// Config holds the parameterization of the indicator set.
type Config struct {
	EMAFastPeriod     int     `yaml:"ema_fast"`
	EMAMediumPeriod   int     `yaml:"ema_medium"`
	EMASlowPeriod     int     `yaml:"ema_slow"`
	ATRPeriod         int     `yaml:"atr_period"`
	SupertrendPeriod  int     `yaml:"supertrend_period"`
	SupertrendFactor  float64 `yaml:"supertrend_factor"`
	VWAPWindow        int     `yaml:"vwap_window"`
	MFIPeriod         int     `yaml:"mfi_period"`
	WilliamsPeriod    int     `yaml:"williams_period"`
	CCIPeriod         int     `yaml:"cci_period"`
	StructureLookback int     `yaml:"structure_lookback"`
	PivotBars         int     `yaml:"pivot_bars"` // bars on each side of a pivot
}

// DefaultConfig returns the standard parameterization.
func DefaultConfig() Config {
	return Config{
		EMAFastPeriod:     9,
		EMAMediumPeriod:   21,
		EMASlowPeriod:     50,
		ATRPeriod:         14,
		SupertrendPeriod:  10,
		SupertrendFactor:  3.0,
		VWAPWindow:        20,
		MFIPeriod:         14,
		WilliamsPeriod:    14,
		CCIPeriod:         20,
		StructureLookback: 20,
		PivotBars:         2,
	}
}
