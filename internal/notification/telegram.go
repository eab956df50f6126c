package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iniduniaku/signaltradingbot/internal/model"
)

// Telegram sends events as plain-text messages via the Bot API.
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// NewTelegram creates a Telegram notifier. botToken comes from
// @BotFather, chatID is the target chat, group or channel.
func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  "https://api.telegram.org",
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) NotifySignal(ctx context.Context, ev model.SignalEvent) error {
	side := "🟢 LONG"
	if ev.Signal.Direction == model.DirectionShort {
		side = "🔴 SHORT"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", side, ev.Symbol)
	fmt.Fprintf(&b, "strength %.1f, confidence %s, risk %s\n", ev.Signal.Strength, ev.Signal.Confidence, ev.Signal.RiskLevel)
	fmt.Fprintf(&b, "entry %.6g, stop %.6g\n", ev.EntryPrice, ev.StopLoss)
	fmt.Fprintf(&b, "tp %.6g / %.6g / %.6g\n", ev.TakeProfits.TP1, ev.TakeProfits.TP2, ev.TakeProfits.TP3)
	fmt.Fprintf(&b, "rr %.2f, leverage %dx, margin %.2f", ev.RiskRewardRatios[0], ev.Position.Leverage, ev.Position.Margin)
	for _, w := range ev.Signal.Warnings {
		fmt.Fprintf(&b, "\n⚠️ %s", w)
	}
	return t.send(ctx, b.String())
}

func (t *Telegram) NotifyTrade(ctx context.Context, ev model.TradeEvent) error {
	return t.send(ctx, fmt.Sprintf("%s %s @ %.6g\n%s", ev.Symbol, ev.Type, ev.Price, ev.Message))
}

func (t *Telegram) NotifyError(ctx context.Context, ev model.ErrorEvent) error {
	return t.send(ctx, fmt.Sprintf("🚨 %s\n%s", ev.Context, ev.Error))
}

func (t *Telegram) send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id": t.chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: unexpected status %d", resp.StatusCode)
	}
	return nil
}
