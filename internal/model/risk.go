package model

// TakeProfits is the three-level partial profit ladder.
type TakeProfits struct {
	TP1 float64 `json:"tp1"`
	TP2 float64 `json:"tp2"`
	TP3 float64 `json:"tp3"`
}

// PositionInfo describes the derived position sizing for a signal.
type PositionInfo struct {
	PositionSize   float64 `json:"position_size"` // leveraged size in base units
	BaseSize       float64 `json:"base_size"`     // unleveraged size in base units
	Margin         float64 `json:"margin"`        // posted margin in quote units
	Leverage       int     `json:"leverage"`
	RiskAmount     float64 `json:"risk_amount"`     // quote units at risk at the stop
	RiskPercentage float64 `json:"risk_percentage"` // of account balance
}

// RiskParameters holds the full risk derivation for an accepted signal.
//
// Invariants: for LONG, StopLoss < EntryPrice < TP1 < TP2 < TP3; mirrored
// for SHORT. RiskRewardRatios[i] = |TPi - entry| / |entry - stop| and
// RiskRewardRatios[0] is at least the configured minimum, otherwise the
// signal was discarded before these parameters were produced.
type RiskParameters struct {
	EntryPrice       float64     `json:"entry_price"`
	TakeProfits      TakeProfits `json:"take_profits"`
	StopLoss         float64     `json:"stop_loss"`
	RiskRewardRatios [3]float64  `json:"risk_reward_ratios"`
	Position         PositionInfo `json:"position"`
	LiquidationPrice float64     `json:"liquidation_price"`
}
