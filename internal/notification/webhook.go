package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/iniduniaku/signaltradingbot/internal/model"
)

// Webhook posts events as JSON envelopes to a generic HTTP endpoint.
// The envelope is {"type": "...", "payload": <event>} with the event
// serialized by its own JSON contract.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a webhook notifier for url.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) NotifySignal(ctx context.Context, ev model.SignalEvent) error {
	return w.post(ctx, "signal", ev)
}

func (w *Webhook) NotifyTrade(ctx context.Context, ev model.TradeEvent) error {
	return w.post(ctx, "trade", ev)
}

func (w *Webhook) NotifyError(ctx context.Context, ev model.ErrorEvent) error {
	return w.post(ctx, "error", ev)
}

func (w *Webhook) post(ctx context.Context, kind string, payload any) error {
	body, err := json.Marshal(map[string]any{
		"type":    kind,
		"payload": payload,
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal %s: %w", kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send %s: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}
