package model

import (
	"fmt"
	"time"
)

// TradeStatus is the lifecycle state of a monitored trade.
// Active is the only non-terminal state; no transition ever leaves a
// terminal state.
type TradeStatus string

const (
	StatusActive        TradeStatus = "ACTIVE"
	StatusCompleted     TradeStatus = "COMPLETED"
	StatusStoppedOut    TradeStatus = "STOPPED_OUT"
	StatusExpired       TradeStatus = "EXPIRED"
	StatusManualRemoval TradeStatus = "MANUAL_REMOVAL"
)

// Terminal reports whether the status ends the trade lifecycle.
func (s TradeStatus) Terminal() bool { return s != StatusActive }

// TPFlags tracks which take-profit levels have been hit. Levels are strictly
// ordered: TP2 can only be set once TP1 is, TP3 once TP2 is.
type TPFlags struct {
	TP1 bool `json:"tp1"`
	TP2 bool `json:"tp2"`
	TP3 bool `json:"tp3"`
}

// Trade is an accepted signal tracked by the lifecycle monitor. A trade is
// created by the monitor and mutated only by the monitor's own poll cycle
// for its id.
type Trade struct {
	ID            string       `json:"id"`
	Symbol        string       `json:"symbol"`
	Direction     Direction    `json:"direction"`
	EntryPrice    float64      `json:"entry_price"`
	CurrentPrice  float64      `json:"current_price"`
	TakeProfits   TakeProfits  `json:"take_profits"`
	StopLoss      float64      `json:"stop_loss"`
	Position      PositionInfo `json:"position"`
	Status        TradeStatus  `json:"status"`
	TPHit         TPFlags      `json:"tp_hit"`
	SLHit         bool         `json:"sl_hit"`
	EntryFilled   bool         `json:"entry_filled"`
	PnL           float64      `json:"pnl"`
	MaxPnL        float64      `json:"max_pnl"`
	MinPnL        float64      `json:"min_pnl"`
	Notifications []string     `json:"notifications,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	LastCheckedAt time.Time    `json:"last_checked_at"`
}

// TradeID derives the deterministic trade id from symbol, direction and the
// creation-minute bucket. Re-registering the same signal within the same
// minute therefore maps to the same id.
func TradeID(symbol string, dir Direction, createdAt time.Time) string {
	return fmt.Sprintf("%s-%s-%d", symbol, dir, createdAt.UTC().Unix()/60)
}
