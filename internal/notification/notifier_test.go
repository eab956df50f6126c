package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iniduniaku/signaltradingbot/internal/model"
)

func sampleSignalEvent() model.SignalEvent {
	return model.SignalEvent{
		Symbol:       "BTCUSDT",
		CurrentPrice: 42000,
		EntryPrice:   41950,
		TakeProfits:  model.TakeProfits{TP1: 43000, TP2: 44000, TP3: 45500},
		StopLoss:     41200,
		RiskRewardRatios: [3]float64{
			1400.0 / 750.0, 2050.0 / 750.0, 3550.0 / 750.0,
		},
		Position: model.PositionInfo{Leverage: 8, Margin: 62.5},
		Signal: &model.Signal{
			Symbol:     "BTCUSDT",
			Direction:  model.DirectionLong,
			Strength:   72.4,
			Confidence: model.ConfidenceMedium,
			RiskLevel:  model.RiskMedium,
			Warnings:   []string{"leverage above 5x"},
		},
		Timestamp: time.Now().UTC(),
	}
}

func TestWebhook_PostsEnvelope(t *testing.T) {
	var got map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL)
	if err := wh.NotifySignal(context.Background(), sampleSignalEvent()); err != nil {
		t.Fatalf("notify: %v", err)
	}

	var kind string
	if err := json.Unmarshal(got["type"], &kind); err != nil || kind != "signal" {
		t.Fatalf("envelope type = %s (%v)", got["type"], err)
	}
	var payload model.SignalEvent
	if err := json.Unmarshal(got["payload"], &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Symbol != "BTCUSDT" || payload.Signal == nil {
		t.Fatalf("payload incomplete: %+v", payload)
	}
}

func TestWebhook_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL)
	err := wh.NotifyTrade(context.Background(), model.TradeEvent{Symbol: "BTCUSDT", Type: model.EventTPHit})
	if err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestTelegram_SendsToChatID(t *testing.T) {
	var path string
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram("token123", "chat456")
	tg.baseURL = srv.URL
	if err := tg.NotifyError(context.Background(), model.ErrorEvent{
		Context: "market scan",
		Error:   "10 consecutive scan cycles failed",
	}); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if path != "/bottoken123/sendMessage" {
		t.Fatalf("path = %q", path)
	}
	if body["chat_id"] != "chat456" {
		t.Fatalf("chat_id = %q", body["chat_id"])
	}
	if body["text"] == "" {
		t.Fatal("empty message text")
	}
}

type flakyNotifier struct {
	fail   bool
	trades int
}

func (f *flakyNotifier) NotifySignal(context.Context, model.SignalEvent) error { return nil }

func (f *flakyNotifier) NotifyTrade(context.Context, model.TradeEvent) error {
	f.trades++
	if f.fail {
		return errors.New("delivery failed")
	}
	return nil
}

func (f *flakyNotifier) NotifyError(context.Context, model.ErrorEvent) error { return nil }

func TestMulti_DeliversPastFailingBackend(t *testing.T) {
	bad := &flakyNotifier{fail: true}
	good := &flakyNotifier{}
	m := NewMulti(bad, nil, good)

	err := m.NotifyTrade(context.Background(), model.TradeEvent{Symbol: "ETHUSDT"})
	if err == nil {
		t.Fatal("expected joined error from failing backend")
	}
	if bad.trades != 1 || good.trades != 1 {
		t.Fatalf("deliveries = %d/%d, want 1/1", bad.trades, good.trades)
	}
}
