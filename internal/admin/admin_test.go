package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/iniduniaku/signaltradingbot/internal/model"
	"github.com/iniduniaku/signaltradingbot/internal/monitor"
)

type nilMarket struct{}

func (nilMarket) Candles(context.Context, string, string, int) ([]model.Candle, error) {
	return nil, nil
}
func (nilMarket) Ticker(context.Context, string) (model.Ticker, error) { return model.Ticker{}, nil }
func (nilMarket) Price(context.Context, string) (float64, error)       { return 0, nil }

const testSecret = "JBSWY3DPEHPK3PXP"

func newTestServer(t *testing.T) (*Server, *monitor.Monitor, *httptest.Server) {
	t.Helper()
	mon := monitor.New(monitor.DefaultConfig(), nilMarket{}, nil, nil)
	s := NewServer(Config{Addr: ":0", TOTPSecret: testSecret}, mon, nil, nil)
	ts := httptest.NewServer(s.srv.Handler)
	t.Cleanup(ts.Close)
	return s, mon, ts
}

func registerTrade(t *testing.T, mon *monitor.Monitor) model.Trade {
	t.Helper()
	sig := &model.Signal{Symbol: "BTCUSDT", Direction: model.DirectionLong, CreatedAt: time.Now()}
	params := &model.RiskParameters{
		EntryPrice:  100,
		TakeProfits: model.TakeProfits{TP1: 104, TP2: 107, TP3: 111},
		StopLoss:    97.6,
		Position:    model.PositionInfo{Leverage: 10, Margin: 50},
	}
	tr, created := mon.Register(sig, params, 100)
	if !created {
		t.Fatal("trade not created")
	}
	return tr
}

func TestAdmin_ListActiveTrades(t *testing.T) {
	_, mon, ts := newTestServer(t)
	registerTrade(t, mon)

	resp, err := http.Get(ts.URL + "/admin/trades")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var trades []model.Trade
	if err := json.NewDecoder(resp.Body).Decode(&trades); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(trades) != 1 || trades[0].Symbol != "BTCUSDT" {
		t.Fatalf("trades = %+v", trades)
	}
}

func TestAdmin_RemoveRequiresOTP(t *testing.T) {
	_, mon, ts := newTestServer(t)
	tr := registerTrade(t, mon)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/admin/trades/"+tr.ID+"/remove", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status without code = %d, want 401", resp.StatusCode)
	}
	if len(mon.Active()) != 1 {
		t.Fatal("trade must survive unauthorized removal")
	}
}

func TestAdmin_RemoveWithValidOTP(t *testing.T) {
	_, mon, ts := newTestServer(t)
	tr := registerTrade(t, mon)

	code, err := totp.GenerateCode(testSecret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/admin/trades/"+tr.ID+"/remove", nil)
	req.Header.Set(totpHeader, code)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if len(mon.Active()) != 0 {
		t.Fatal("trade still active after removal")
	}
	archived := mon.Archived()
	if len(archived) != 1 || archived[0].Status != model.StatusManualRemoval {
		t.Fatalf("archive = %+v", archived)
	}
}

func TestAdmin_RemoveUnknownTradeIs404(t *testing.T) {
	_, _, ts := newTestServer(t)

	code, _ := totp.GenerateCode(testSecret, time.Now())
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/admin/trades/nope/remove", nil)
	req.Header.Set(totpHeader, code)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAdmin_MutationsDisabledWithoutSecret(t *testing.T) {
	mon := monitor.New(monitor.DefaultConfig(), nilMarket{}, nil, nil)
	s := NewServer(Config{Addr: ":0"}, mon, nil, nil)
	ts := httptest.NewServer(s.srv.Handler)
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/admin/trades/x/remove", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}
