package indicator

// EMA calculates the Exponential Moving Average of a value series.
// The first value of the window seeds the recursion and the standard
// multiplier 2/(period+1) smooths subsequent values. Requires at least
// period values; returns (0, false) otherwise.
func EMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}

	multiplier := 2.0 / float64(period+1)
	ema := values[0]
	for _, v := range values[1:] {
		// EMA = (Price * multiplier) + (EMA_prev * (1 - multiplier))
		ema = (v * multiplier) + (ema * (1 - multiplier))
	}
	return ema, true
}

// EMASeries returns the EMA at every index of the series, using the same
// first-value seed as EMA. The slice has the same length as values.
// Returns nil when fewer than period values are supplied.
func EMASeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	multiplier := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = (values[i] * multiplier) + (out[i-1] * (1 - multiplier))
	}
	return out
}
