package scorer

import (
	"testing"

	"github.com/iniduniaku/signaltradingbot/internal/model"
)

// bullishSet builds an indicator set where every category votes LONG.
func bullishSet() *model.IndicatorSet {
	return &model.IndicatorSet{
		Trend: model.TrendIndicators{
			EMAFast:   model.Float(103),
			EMAMedium: model.Float(101),
			EMASlow:   model.Float(99),
			Supertrend: &model.Supertrend{
				Value:     98,
				Direction: model.TrendBullish,
				LowerBand: 98,
				UpperBand: 108,
			},
			Structure: &model.MarketStructure{Trend: model.TrendBullish, Strength: 0.8},
		},
		Momentum: model.MomentumIndicators{
			MFI:       model.Float(15),
			WilliamsR: model.Float(-90),
			CCI:       model.Float(-150),
		},
		Volume: model.VolumeIndicators{
			VWAP: model.Float(100),
			OBV:  model.Float(1000),
		},
		Futures: &model.FuturesSnapshot{
			FundingRate:      -0.001,
			LiquidationRatio: 0.85,
		},
	}
}

// bearishSet mirrors bullishSet toward SHORT.
func bearishSet() *model.IndicatorSet {
	return &model.IndicatorSet{
		Trend: model.TrendIndicators{
			EMAFast:   model.Float(97),
			EMAMedium: model.Float(99),
			EMASlow:   model.Float(101),
			Supertrend: &model.Supertrend{
				Value:     102,
				Direction: model.TrendBearish,
				LowerBand: 92,
				UpperBand: 102,
			},
			Structure: &model.MarketStructure{Trend: model.TrendBearish, Strength: 0.8},
		},
		Momentum: model.MomentumIndicators{
			MFI:       model.Float(85),
			WilliamsR: model.Float(-10),
			CCI:       model.Float(150),
		},
		Volume: model.VolumeIndicators{
			VWAP: model.Float(103),
		},
		Futures: &model.FuturesSnapshot{
			FundingRate:      0.001,
			LiquidationRatio: 0.1,
		},
	}
}

func TestScore_FullBullishAlignment(t *testing.T) {
	s := New(DefaultConfig())
	sig := s.Score("BTCUSDT", bullishSet(), 103) // 3% above VWAP

	if sig == nil {
		t.Fatal("expected a signal")
	}
	if sig.Direction != model.DirectionLong {
		t.Fatalf("expected LONG, got %s", sig.Direction)
	}
	if sig.Strength < 99.9 {
		t.Fatalf("full alignment should score ~100, got %.2f", sig.Strength)
	}
	if sig.Confidence != model.ConfidenceHigh {
		t.Fatalf("expected HIGH confidence at strength %.2f", sig.Strength)
	}
	if sig.Symbol != "BTCUSDT" {
		t.Fatalf("unexpected symbol %q", sig.Symbol)
	}
}

func TestScore_FullBearishAlignment(t *testing.T) {
	s := New(DefaultConfig())
	sig := s.Score("ETHUSDT", bearishSet(), 99) // ~3.9% below VWAP

	if sig == nil {
		t.Fatal("expected a signal")
	}
	if sig.Direction != model.DirectionShort {
		t.Fatalf("expected SHORT, got %s", sig.Direction)
	}
	if sig.Confidence != model.ConfidenceHigh {
		t.Fatalf("expected HIGH confidence, got %s", sig.Confidence)
	}
}

func TestScore_EmittedStrengthAlwaysAboveMinimum(t *testing.T) {
	s := New(DefaultConfig())
	sets := []*model.IndicatorSet{bullishSet(), bearishSet()}
	prices := []float64{103, 99}
	for i, set := range sets {
		if sig := s.Score("X", set, prices[i]); sig != nil {
			if sig.Strength < DefaultConfig().MinConfidence {
				t.Fatalf("emitted signal below min confidence: %.2f", sig.Strength)
			}
		}
	}
}

func TestScore_AbsentCategoriesExcludedFromDenominator(t *testing.T) {
	// Only momentum data, all oversold: 25/25 points. If absent categories
	// silently diluted the denominator this would score 25, not 100.
	set := &model.IndicatorSet{
		Momentum: model.MomentumIndicators{
			MFI:       model.Float(15),
			WilliamsR: model.Float(-90),
			CCI:       model.Float(-150),
		},
	}
	sig := New(DefaultConfig()).Score("X", set, 100)
	if sig == nil {
		t.Fatal("expected a signal from momentum-only data")
	}
	if sig.Direction != model.DirectionLong {
		t.Fatalf("expected LONG, got %s", sig.Direction)
	}
	if sig.Strength < 99.9 {
		t.Fatalf("momentum-only oversold set should score ~100, got %.2f", sig.Strength)
	}
}

func TestScore_NoDataNoSignal(t *testing.T) {
	if sig := New(DefaultConfig()).Score("X", &model.IndicatorSet{}, 100); sig != nil {
		t.Fatalf("expected nil signal with no available categories, got %+v", sig)
	}
	if sig := New(DefaultConfig()).Score("X", nil, 100); sig != nil {
		t.Fatal("expected nil signal for nil set")
	}
}

func TestScore_NeutralReadingsNoSignal(t *testing.T) {
	set := &model.IndicatorSet{
		Momentum: model.MomentumIndicators{
			MFI:       model.Float(50),
			WilliamsR: model.Float(-50),
			CCI:       model.Float(0),
		},
		Volume: model.VolumeIndicators{VWAP: model.Float(100)},
	}
	if sig := New(DefaultConfig()).Score("X", set, 100); sig != nil {
		t.Fatalf("neutral readings should not qualify, got %+v", sig)
	}
}

func TestScore_MediumConfidenceBand(t *testing.T) {
	// Trend fully bullish (40) plus soft momentum: strength lands between
	// min and high confidence.
	set := &model.IndicatorSet{
		Trend: model.TrendIndicators{
			EMAFast:   model.Float(103),
			EMAMedium: model.Float(101),
			EMASlow:   model.Float(99),
			Supertrend: &model.Supertrend{
				Value:     98,
				Direction: model.TrendBullish,
			},
			Structure: &model.MarketStructure{Trend: model.TrendBullish, Strength: 0.8},
		},
		Momentum: model.MomentumIndicators{
			MFI:       model.Float(35), // soft oversold: 5 of 25
			WilliamsR: model.Float(-50),
			CCI:       model.Float(0),
		},
	}
	sig := New(DefaultConfig()).Score("X", set, 103)
	if sig == nil {
		t.Fatal("expected a signal")
	}
	// 45 of 65 available weight = 69.2: above min, below high.
	if sig.Confidence != model.ConfidenceMedium {
		t.Fatalf("expected MEDIUM confidence at strength %.2f, got %s", sig.Strength, sig.Confidence)
	}
}

func TestScore_FundingSignInversion(t *testing.T) {
	// Extreme positive funding alone must push SHORT, never LONG.
	set := &model.IndicatorSet{
		Futures: &model.FuturesSnapshot{FundingRate: 0.002, LiquidationRatio: 0.5},
	}
	sig := New(DefaultConfig()).Score("X", set, 100)
	if sig == nil {
		t.Fatal("expected a signal from extreme funding")
	}
	if sig.Direction != model.DirectionShort {
		t.Fatalf("positive funding must be bearish, got %s", sig.Direction)
	}
}
