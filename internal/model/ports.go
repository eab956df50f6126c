package model

import "context"

// ── Collaborator Port Interfaces ──
// These interfaces decouple the pipeline from concrete collaborator
// implementations (exchange REST/WS clients, notification channels).
// Every call is expected to carry its own timeout and fail soft: a failed
// fetch isolates to the symbol or trade being processed, never the batch.

// MarketData supplies candle history and live prices for symbols.
type MarketData interface {
	// Candles returns up to limit candles for symbol at the given interval,
	// ordered ascending by timestamp.
	Candles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)

	// Ticker returns the current price snapshot for symbol.
	Ticker(ctx context.Context, symbol string) (Ticker, error)

	// Price returns the latest traded or mark price for symbol.
	Price(ctx context.Context, symbol string) (float64, error)
}

// FuturesData supplies futures-context snapshots (funding, mark price,
// open interest, liquidation ratio). Implementations cache results for
// several minutes.
type FuturesData interface {
	Snapshot(ctx context.Context, symbol string) (FuturesSnapshot, error)
}

// Notifier delivers structured pipeline events to an external channel.
type Notifier interface {
	NotifySignal(ctx context.Context, ev SignalEvent) error
	NotifyTrade(ctx context.Context, ev TradeEvent) error
	NotifyError(ctx context.Context, ev ErrorEvent) error
}
