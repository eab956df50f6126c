package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/iniduniaku/signaltradingbot/internal/model"
)

const defaultLatestTTL = 30 * time.Minute

// MirrorConfig configures the Redis mirror.
type MirrorConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Mirror publishes the latest pipeline outputs (signals, futures
// snapshots, trade events) to Redis for dashboards and other external
// readers. Nothing is ever read back: the in-process state stays the only
// source of truth, and a write failure is logged and dropped.
type Mirror struct {
	client *goredis.Client
	log    *slog.Logger
}

// NewMirror connects to Redis and pings it once.
func NewMirror(cfg MirrorConfig, log *slog.Logger) (*Mirror, error) {
	if log == nil {
		log = slog.Default()
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Info("redis mirror connected", "addr", cfg.Addr)
	return &Mirror{client: client, log: log}, nil
}

// Client returns the underlying Redis client for health checks.
func (m *Mirror) Client() *goredis.Client { return m.client }

// PublishSignal mirrors an accepted signal: SET latest with TTL plus a
// PUBLISH for live subscribers, in one pipeline roundtrip.
func (m *Mirror) PublishSignal(ctx context.Context, ev model.SignalEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		m.log.Warn("signal mirror marshal failed", "symbol", ev.Symbol, "error", err)
		return
	}

	pipe := m.client.Pipeline()
	pipe.Set(ctx, "signal:latest:"+ev.Symbol, payload, defaultLatestTTL)
	pipe.Publish(ctx, "pub:signal:"+ev.Symbol, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		m.log.Warn("signal mirror write failed", "symbol", ev.Symbol, "error", err)
	}
}

// PublishSnapshot mirrors the latest futures snapshot for a symbol.
func (m *Mirror) PublishSnapshot(ctx context.Context, symbol string, snap model.FuturesSnapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		m.log.Warn("snapshot mirror marshal failed", "symbol", symbol, "error", err)
		return
	}
	if err := m.client.Set(ctx, "futures:latest:"+symbol, payload, defaultLatestTTL).Err(); err != nil {
		m.log.Warn("snapshot mirror write failed", "symbol", symbol, "error", err)
	}
}

// PublishTradeEvent mirrors a lifecycle event to live subscribers.
func (m *Mirror) PublishTradeEvent(ctx context.Context, ev model.TradeEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		m.log.Warn("trade mirror marshal failed", "symbol", ev.Symbol, "error", err)
		return
	}
	if err := m.client.Publish(ctx, "pub:trade:"+ev.Symbol, payload).Err(); err != nil {
		m.log.Warn("trade mirror publish failed", "symbol", ev.Symbol, "error", err)
	}
}

// Close closes the Redis client.
func (m *Mirror) Close() error {
	return m.client.Close()
}
