package exchange

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iniduniaku/signaltradingbot/internal/model"
)

func TestStream_URLCombinesSymbols(t *testing.T) {
	s := NewMarkPriceStream(DefaultStreamConfig([]string{"BTCUSDT", "ETHUSDT"}), nil, nil, nil)
	got := s.url()
	want := "wss://fstream.binance.com/stream?streams=btcusdt@markPrice@1s/ethusdt@markPrice@1s"
	if got != want {
		t.Fatalf("url = %q, want %q", got, want)
	}
}

func TestStream_URLTestnet(t *testing.T) {
	cfg := DefaultStreamConfig([]string{"BTCUSDT"})
	cfg.Testnet = true
	s := NewMarkPriceStream(cfg, nil, nil, nil)
	if !strings.HasPrefix(s.url(), "wss://stream.binancefuture.com/stream?") {
		t.Fatalf("testnet url = %q", s.url())
	}
}

func TestStream_DecodeMarkPriceFrame(t *testing.T) {
	payload := []byte(`{"stream":"btcusdt@markPrice@1s","data":{"e":"markPriceUpdate","E":1700000000123,"s":"BTCUSDT","p":"42013.55000000"}}`)

	var msg combinedMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Data.Event != "markPriceUpdate" {
		t.Fatalf("event = %q", msg.Data.Event)
	}
	if msg.Data.Symbol != "BTCUSDT" {
		t.Fatalf("symbol = %q", msg.Data.Symbol)
	}
	if msg.Data.MarkPrice != "42013.55000000" {
		t.Fatalf("price = %q", msg.Data.MarkPrice)
	}
}

type restPriceStub struct {
	calls int
	price float64
}

func (r *restPriceStub) Candles(context.Context, string, string, int) ([]model.Candle, error) {
	return nil, nil
}

func (r *restPriceStub) Ticker(context.Context, string) (model.Ticker, error) {
	return model.Ticker{}, nil
}

func (r *restPriceStub) Price(context.Context, string) (float64, error) {
	r.calls++
	return r.price, nil
}

func TestStreamPrices_PrefersStreamedPrice(t *testing.T) {
	rest := &restPriceStub{price: 100}
	sp := NewStreamPrices(rest, time.Minute)

	sp.Update(MarkPrice{Symbol: "BTCUSDT", Price: 101.5, Time: time.Now()})

	got, err := sp.Price(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if got != 101.5 {
		t.Fatalf("price = %v, want streamed 101.5", got)
	}
	if rest.calls != 0 {
		t.Fatalf("rest calls = %d, want 0", rest.calls)
	}
}

func TestStreamPrices_FallsBackToREST(t *testing.T) {
	rest := &restPriceStub{price: 100}
	sp := NewStreamPrices(rest, time.Minute)

	got, err := sp.Price(context.Background(), "ETHUSDT")
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if got != 100 {
		t.Fatalf("price = %v, want REST 100", got)
	}
	if rest.calls != 1 {
		t.Fatalf("rest calls = %d, want 1", rest.calls)
	}
}
