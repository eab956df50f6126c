package risk

import (
	"fmt"
	"math"

	"github.com/iniduniaku/signaltradingbot/internal/model"
)

// Assessment is the validation result for a derived parameter set:
// advisory warnings plus an additive risk score mapped to a level.
// EXTREME assessments must be dropped by the caller before a trade is
// registered.
type Assessment struct {
	Score    int
	Level    model.RiskLevel
	Warnings []string
}

// assess scores stop distance, leverage and the first reward ratio into
// bucketed tiers. The three tiers add to at most 12; totals above 10 map
// to EXTREME.
func (p *Parameterizer) assess(params *model.RiskParameters) *Assessment {
	a := &Assessment{}
	warn := func(format string, args ...interface{}) {
		a.Warnings = append(a.Warnings, fmt.Sprintf(format, args...))
	}

	stopPct := math.Abs(params.EntryPrice-params.StopLoss) / params.EntryPrice * 100
	switch {
	case stopPct < 0.5:
		a.Score += 4
		warn("stop distance %.2f%% is below 0.5%% of entry", stopPct)
	case stopPct < 1:
		a.Score += 2
	case stopPct > 5:
		a.Score += 3
		warn("stop distance %.2f%% exceeds 5%% of entry", stopPct)
	}

	lev := params.Position.Leverage
	switch {
	case lev > 20:
		a.Score += 4
		warn("leverage %dx exceeds 20x", lev)
	case lev > 10:
		a.Score += 3
	case lev > 5:
		a.Score += 2
	case lev > 3:
		a.Score += 1
	}

	switch ratio := params.RiskRewardRatios[0]; {
	case ratio < 1.5:
		a.Score += 4
		warn("first reward ratio %.2f is below 1.5", ratio)
	case ratio < 2:
		a.Score += 2
	case ratio < 3:
		a.Score += 1
	}

	liqPct := math.Abs(params.EntryPrice-params.LiquidationPrice) / params.EntryPrice * 100
	if liqPct < 10 {
		warn("liquidation distance %.2f%% of entry is below 10%%", liqPct)
	}

	switch {
	case a.Score <= 4:
		a.Level = model.RiskLow
	case a.Score <= 7:
		a.Level = model.RiskMedium
	case a.Score <= 10:
		a.Level = model.RiskHigh
	default:
		a.Level = model.RiskExtreme
	}
	return a
}
