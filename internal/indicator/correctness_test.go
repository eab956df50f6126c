package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/iniduniaku/signaltradingbot/internal/model"
)

// candlesFromCloses builds a window where each candle has a small
// high/low range around its close and unit volume.
func candlesFromCloses(closes ...float64) []model.Candle {
	out := make([]model.Candle, len(closes))
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = model.Candle{
			Timestamp: ts.Add(time.Duration(i) * time.Minute),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1,
		}
	}
	return out
}

func risingCloses(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestEMA_InsufficientWindow(t *testing.T) {
	if _, ok := EMA([]float64{1, 2, 3}, 5); ok {
		t.Fatal("EMA should be unavailable when len(values) < period")
	}
	if _, ok := EMA(nil, 5); ok {
		t.Fatal("EMA should be unavailable on empty input")
	}
}

func TestEMA_ConvergesUpwardOnRisingSeries(t *testing.T) {
	values := risingCloses(60, 100, 1)
	prev := 0.0
	for n := 10; n <= len(values); n++ {
		ema, ok := EMA(values[:n], 9)
		if !ok {
			t.Fatalf("EMA unavailable at n=%d", n)
		}
		if n > 10 && ema <= prev {
			t.Fatalf("EMA not strictly increasing at n=%d: %.4f <= %.4f", n, ema, prev)
		}
		prev = ema
	}

	// EMA of a rising series lags below the last price.
	last := values[len(values)-1]
	if prev >= last {
		t.Fatalf("EMA %.4f should lag below last value %.4f", prev, last)
	}
}

func TestEMA_ConstantSeries(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 42.5
	}
	ema, ok := EMA(values, 9)
	if !ok {
		t.Fatal("EMA unavailable")
	}
	if math.Abs(ema-42.5) > 1e-9 {
		t.Fatalf("EMA of constant series should be the constant, got %.6f", ema)
	}
}

func TestATR_MinimumWindow(t *testing.T) {
	candles := candlesFromCloses(risingCloses(14, 100, 1)...)
	if _, ok := ATR(candles, 14); ok {
		t.Fatal("ATR needs period+1 candles")
	}
	candles = candlesFromCloses(risingCloses(15, 100, 1)...)
	if _, ok := ATR(candles, 14); !ok {
		t.Fatal("ATR should be available with period+1 candles")
	}
}

func TestATR_NonNegative(t *testing.T) {
	cases := [][]float64{
		risingCloses(30, 100, 1),
		risingCloses(30, 100, -1),
		{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100},
	}
	for i, closes := range cases {
		atr, ok := ATR(candlesFromCloses(closes...), 14)
		if !ok {
			t.Fatalf("case %d: ATR unavailable", i)
		}
		if atr < 0 {
			t.Fatalf("case %d: ATR must be >= 0, got %.4f", i, atr)
		}
	}
}

func TestATR_KnownValue(t *testing.T) {
	// Constant 2-wide candles with no gaps: every TR is high-low = 2.
	candles := candlesFromCloses(risingCloses(20, 100, 0)...)
	atr, ok := ATR(candles, 14)
	if !ok {
		t.Fatal("ATR unavailable")
	}
	if math.Abs(atr-2.0) > 1e-9 {
		t.Fatalf("expected ATR=2.0, got %.6f", atr)
	}
}

func TestSupertrend_MinimumWindow(t *testing.T) {
	candles := candlesFromCloses(risingCloses(19, 100, 1)...)
	if _, ok := Supertrend(candles, 10, 3.0); ok {
		t.Fatal("supertrend needs period+10 candles")
	}
}

func TestSupertrend_FollowsTrend(t *testing.T) {
	up := candlesFromCloses(risingCloses(60, 100, 2)...)
	st, ok := Supertrend(up, 10, 3.0)
	if !ok {
		t.Fatal("supertrend unavailable")
	}
	if st.Direction != model.TrendBullish {
		t.Fatalf("expected BULLISH on rising series, got %s", st.Direction)
	}
	// Active band for a bullish reading is the lower band, below the close.
	last := up[len(up)-1].Close
	if st.Value != st.LowerBand {
		t.Fatalf("bullish supertrend value should be the lower band")
	}
	if st.Value >= last {
		t.Fatalf("bullish band %.2f should sit below close %.2f", st.Value, last)
	}

	down := candlesFromCloses(risingCloses(60, 300, -2)...)
	st, ok = Supertrend(down, 10, 3.0)
	if !ok {
		t.Fatal("supertrend unavailable")
	}
	if st.Direction != model.TrendBearish {
		t.Fatalf("expected BEARISH on falling series, got %s", st.Direction)
	}
	last = down[len(down)-1].Close
	if st.Value != st.UpperBand || st.Value <= last {
		t.Fatalf("bearish band %.2f should sit above close %.2f", st.Value, last)
	}
}

func TestSupertrend_FlipsOnReversal(t *testing.T) {
	closes := risingCloses(40, 100, 2)
	closes = append(closes, risingCloses(40, 178, -3)...)
	st, ok := Supertrend(candlesFromCloses(closes...), 10, 3.0)
	if !ok {
		t.Fatal("supertrend unavailable")
	}
	if st.Direction != model.TrendBearish {
		t.Fatalf("expected flip to BEARISH after reversal, got %s", st.Direction)
	}
}

func TestVWAP(t *testing.T) {
	if _, ok := VWAP(candlesFromCloses(risingCloses(10, 100, 1)...), 20); ok {
		t.Fatal("VWAP needs 20 candles")
	}

	// Constant price: VWAP equals the typical price regardless of volume.
	candles := candlesFromCloses(risingCloses(25, 100, 0)...)
	vwap, ok := VWAP(candles, 20)
	if !ok {
		t.Fatal("VWAP unavailable")
	}
	if math.Abs(vwap-100.0) > 1e-9 {
		t.Fatalf("expected VWAP=100, got %.6f", vwap)
	}
}

func TestMFI_AllPositiveFlow(t *testing.T) {
	mfi, ok := MFI(candlesFromCloses(risingCloses(20, 100, 1)...), 14)
	if !ok {
		t.Fatal("MFI unavailable")
	}
	if mfi != 100 {
		t.Fatalf("expected MFI=100 with no negative flow, got %.2f", mfi)
	}
}

func TestMFI_Range(t *testing.T) {
	closes := []float64{100, 102, 101, 104, 103, 105, 102, 106, 104, 107, 105, 108, 106, 109, 107, 110}
	mfi, ok := MFI(candlesFromCloses(closes...), 14)
	if !ok {
		t.Fatal("MFI unavailable")
	}
	if mfi < 0 || mfi > 100 {
		t.Fatalf("MFI out of range: %.2f", mfi)
	}
}

func TestWilliamsR(t *testing.T) {
	// Close at the top of the range gives a reading near 0, at the bottom near -100.
	closes := risingCloses(14, 100, 1)
	wr, ok := WilliamsR(candlesFromCloses(closes...), 14)
	if !ok {
		t.Fatal("WilliamsR unavailable")
	}
	if wr < -100 || wr > 0 {
		t.Fatalf("WilliamsR out of range: %.2f", wr)
	}
	if wr < -20 {
		t.Fatalf("close at range top should read near 0, got %.2f", wr)
	}

	// Zero range degrades to 0.
	flat := make([]model.Candle, 14)
	for i := range flat {
		flat[i] = model.Candle{Open: 100, High: 100, Low: 100, Close: 100, Volume: 1}
	}
	wr, ok = WilliamsR(flat, 14)
	if !ok || wr != 0 {
		t.Fatalf("zero-range WilliamsR should be 0, got %.2f ok=%v", wr, ok)
	}
}

func TestCCI(t *testing.T) {
	// Zero deviation degrades to 0.
	cci, ok := CCI(candlesFromCloses(risingCloses(20, 100, 0)...), 20)
	if !ok || cci != 0 {
		t.Fatalf("zero-deviation CCI should be 0, got %.2f ok=%v", cci, ok)
	}

	// Rising series ends above its SMA: CCI positive.
	cci, ok = CCI(candlesFromCloses(risingCloses(25, 100, 1)...), 20)
	if !ok {
		t.Fatal("CCI unavailable")
	}
	if cci <= 0 {
		t.Fatalf("expected positive CCI on rising series, got %.2f", cci)
	}
}

func TestIchimoku(t *testing.T) {
	if _, ok := Ichimoku(candlesFromCloses(risingCloses(51, 100, 1)...)); ok {
		t.Fatal("ichimoku needs 52 candles")
	}

	ich, ok := Ichimoku(candlesFromCloses(risingCloses(60, 100, 1)...))
	if !ok {
		t.Fatal("ichimoku unavailable")
	}
	// On a rising series the short midpoint sits above the long ones.
	if ich.Conversion <= ich.Base || ich.Base <= ich.SpanB {
		t.Fatalf("expected conversion > base > spanB on rising series: %+v", ich)
	}
	if ich.Lagging != 159 {
		t.Fatalf("lagging span should equal current close, got %.2f", ich.Lagging)
	}
}

func TestMarketStructure(t *testing.T) {
	ms, ok := MarketStructure(candlesFromCloses(risingCloses(20, 100, 1)...), 20)
	if !ok {
		t.Fatal("structure unavailable")
	}
	if ms.Trend != model.TrendBullish {
		t.Fatalf("expected BULLISH, got %s", ms.Trend)
	}
	if ms.Strength != 1 {
		t.Fatalf("uniform rise should have max strength, got %.2f", ms.Strength)
	}

	ms, ok = MarketStructure(candlesFromCloses(risingCloses(20, 200, -1)...), 20)
	if !ok || ms.Trend != model.TrendBearish {
		t.Fatalf("expected BEARISH on falling series, got %+v", ms)
	}
}

func TestSupportResistance(t *testing.T) {
	// A valley then a peak below/above the final close.
	closes := []float64{100, 98, 95, 97, 99, 103, 106, 104, 101, 102}
	sr, ok := SupportResistance(candlesFromCloses(closes...), 2)
	if !ok {
		t.Fatal("levels unavailable")
	}
	if len(sr.Support) == 0 {
		t.Fatal("expected a support pivot below the close")
	}
	if len(sr.Resistance) == 0 {
		t.Fatal("expected a resistance pivot above the close")
	}
	// Nearest-first ordering.
	for i := 1; i < len(sr.Support); i++ {
		if sr.Support[i] > sr.Support[i-1] {
			t.Fatal("support levels must be ordered nearest first")
		}
	}
	for i := 1; i < len(sr.Resistance); i++ {
		if sr.Resistance[i] < sr.Resistance[i-1] {
			t.Fatal("resistance levels must be ordered nearest first")
		}
	}
}

func TestCompute_PropagatesAbsence(t *testing.T) {
	// 25 candles: enough for fast/medium EMA, ATR, VWAP and MFI, but not
	// for slow EMA (50) or Ichimoku (52).
	set := Compute(candlesFromCloses(risingCloses(25, 100, 1)...), nil, DefaultConfig())

	if !set.Trend.EMAFast.Valid || !set.Trend.EMAMedium.Valid {
		t.Fatal("fast/medium EMA should be available at 25 candles")
	}
	if set.Trend.EMASlow.Valid {
		t.Fatal("slow EMA must be absent, not zero, at 25 candles")
	}
	if set.Trend.Ichimoku != nil {
		t.Fatal("ichimoku must be absent at 25 candles")
	}
	if set.Futures != nil {
		t.Fatal("futures group must be absent when no snapshot supplied")
	}
	if !set.Risk.ATR.Valid || !set.Risk.Volatility.Valid {
		t.Fatal("ATR and volatility should be available at 25 candles")
	}
}

func TestCompute_FullWindow(t *testing.T) {
	fut := &model.FuturesSnapshot{FundingRate: 0.0002, MarkPrice: 160}
	set := Compute(candlesFromCloses(risingCloses(60, 100, 1)...), fut, DefaultConfig())

	if set.Trend.Supertrend == nil || set.Trend.Ichimoku == nil || set.Trend.Structure == nil {
		t.Fatal("all trend readings should be available at 60 candles")
	}
	if !set.Momentum.MFI.Valid || !set.Momentum.WilliamsR.Valid || !set.Momentum.CCI.Valid {
		t.Fatal("all momentum readings should be available at 60 candles")
	}
	if !set.Volume.VWAP.Valid || !set.Volume.OBV.Valid {
		t.Fatal("all volume readings should be available at 60 candles")
	}
	if set.Futures == nil || set.Futures.FundingRate != 0.0002 {
		t.Fatal("futures snapshot should be attached")
	}
}
