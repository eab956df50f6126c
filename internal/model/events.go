package model

import "time"

// TradeEventType labels a trade lifecycle notification.
type TradeEventType string

const (
	EventEntryFilled TradeEventType = "ENTRY_FILLED"
	EventTPHit       TradeEventType = "TP_HIT"
	EventSLHit       TradeEventType = "SL_HIT"
	EventExpired     TradeEventType = "EXPIRED"
)

// SignalEvent is the payload emitted when a signal passes risk validation.
// Formatting for humans happens in the notification backends, not here.
type SignalEvent struct {
	Symbol           string        `json:"symbol"`
	CurrentPrice     float64       `json:"current_price"`
	EntryPrice       float64       `json:"entry_price"`
	TakeProfits      TakeProfits   `json:"take_profits"`
	StopLoss         float64       `json:"stop_loss"`
	RiskRewardRatios [3]float64    `json:"risk_reward_ratios"`
	Position         PositionInfo  `json:"position"`
	Indicators       *IndicatorSet `json:"indicators,omitempty"`
	Signal           *Signal       `json:"signal"`
	Timestamp        time.Time     `json:"timestamp"`
}

// TradeEvent is the payload emitted on trade lifecycle transitions.
type TradeEvent struct {
	Symbol    string         `json:"symbol"`
	Type      TradeEventType `json:"type"`
	Price     float64        `json:"price"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
}

// ErrorEvent is the payload emitted after repeated scan failures.
type ErrorEvent struct {
	Context   string    `json:"context"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}
