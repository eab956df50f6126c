package exchange

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"

	"github.com/iniduniaku/signaltradingbot/internal/cache"
	"github.com/iniduniaku/signaltradingbot/internal/metrics"
	"github.com/iniduniaku/signaltradingbot/internal/model"
)

const (
	mainnetStreamURL = "wss://fstream.binance.com/stream"
	testnetStreamURL = "wss://stream.binancefuture.com/stream"

	// The server pings every few minutes; a read past this deadline
	// means the connection is dead.
	streamReadTimeout = 5 * time.Minute
)

// MarkPrice is one mark-price update from the stream.
type MarkPrice struct {
	Symbol string
	Price  float64
	Time   time.Time
}

// StreamConfig configures the mark-price stream.
type StreamConfig struct {
	URL     string   `yaml:"url"` // empty selects mainnet
	Symbols []string `yaml:"symbols"`
	Testnet bool     `yaml:"testnet"`

	ReconnectMin time.Duration `yaml:"reconnect_min"`
	ReconnectMax time.Duration `yaml:"reconnect_max"`
}

// DefaultStreamConfig returns the standard stream settings.
func DefaultStreamConfig(symbols []string) StreamConfig {
	return StreamConfig{
		Symbols:      symbols,
		ReconnectMin: time.Second,
		ReconnectMax: time.Minute,
	}
}

// MarkPriceStream maintains a combined websocket subscription to
// mark-price updates and hands every update to a callback. The stream
// reconnects with jittered exponential backoff for as long as its context
// lives.
type MarkPriceStream struct {
	cfg    StreamConfig
	onMark func(MarkPrice)
	met    *metrics.Metrics
	log    *slog.Logger
	dialer *websocket.Dialer
}

// NewMarkPriceStream creates a stream. met may be nil.
func NewMarkPriceStream(cfg StreamConfig, onMark func(MarkPrice), met *metrics.Metrics, log *slog.Logger) *MarkPriceStream {
	if log == nil {
		log = slog.Default()
	}
	return &MarkPriceStream{
		cfg:    cfg,
		onMark: onMark,
		met:    met,
		log:    log,
		dialer: websocket.DefaultDialer,
	}
}

func (s *MarkPriceStream) url() string {
	base := s.cfg.URL
	if base == "" {
		base = mainnetStreamURL
		if s.cfg.Testnet {
			base = testnetStreamURL
		}
	}
	streams := make([]string, len(s.cfg.Symbols))
	for i, sym := range s.cfg.Symbols {
		streams[i] = strings.ToLower(sym) + "@markPrice@1s"
	}
	return base + "?streams=" + strings.Join(streams, "/")
}

// Run connects and reads until ctx is cancelled, reconnecting on any
// error. Blocks; run it on its own goroutine.
func (s *MarkPriceStream) Run(ctx context.Context) {
	if len(s.cfg.Symbols) == 0 {
		s.log.Warn("mark price stream disabled, no symbols configured")
		return
	}

	retry := &backoff.Backoff{
		Min:    s.cfg.ReconnectMin,
		Max:    s.cfg.ReconnectMax,
		Jitter: true,
	}

	for {
		if ctx.Err() != nil {
			return
		}

		err := s.readOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if s.met != nil {
			s.met.WSReconnects.Inc()
		}
		delay := retry.Duration()
		s.log.Warn("mark price stream disconnected", "error", err, "retry_in", delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// combinedMsg is the combined-stream envelope for a mark-price update.
type combinedMsg struct {
	Stream string `json:"stream"`
	Data   struct {
		Event     string `json:"e"`
		EventTime int64  `json:"E"`
		Symbol    string `json:"s"`
		MarkPrice string `json:"p"`
	} `json:"data"`
}

// readOnce dials the stream and reads until the connection breaks.
func (s *MarkPriceStream) readOnce(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	s.log.Info("mark price stream connected", "symbols", len(s.cfg.Symbols))

	conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(streamReadTimeout))

		var msg combinedMsg
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.log.Debug("unparseable stream frame", "error", err)
			continue
		}
		if msg.Data.Event != "markPriceUpdate" {
			continue
		}
		price, err := strconv.ParseFloat(msg.Data.MarkPrice, 64)
		if err != nil || price <= 0 {
			continue
		}
		if s.onMark != nil {
			s.onMark(MarkPrice{
				Symbol: msg.Data.Symbol,
				Price:  price,
				Time:   time.UnixMilli(msg.Data.EventTime),
			})
		}
	}
}

// StreamPrices wraps a REST market-data source with a short-lived cache
// fed by the mark-price stream, so trade polling rarely needs a REST
// roundtrip for prices. Candles and tickers pass straight through.
type StreamPrices struct {
	model.MarketData
	prices *cache.TTL[float64]
}

// NewStreamPrices wraps rest. ttl bounds how stale a streamed price may
// be before falling back to REST.
func NewStreamPrices(rest model.MarketData, ttl time.Duration) *StreamPrices {
	return &StreamPrices{
		MarketData: rest,
		prices:     cache.NewTTL[float64](ttl),
	}
}

// Update feeds a streamed mark price into the cache. Wire it as the
// stream callback.
func (s *StreamPrices) Update(mp MarkPrice) {
	s.prices.Set(mp.Symbol, mp.Price)
}

// Price prefers a fresh streamed price over a REST call.
func (s *StreamPrices) Price(ctx context.Context, symbol string) (float64, error) {
	if v, ok := s.prices.Get(symbol); ok {
		return v, nil
	}
	return s.MarketData.Price(ctx, symbol)
}
