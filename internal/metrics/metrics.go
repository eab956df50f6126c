// Package metrics exposes Prometheus metrics and a health endpoint for
// the signal pipeline.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the signal bot.
type Metrics struct {
	// Scan pipeline
	ScansTotal        prometheus.Counter
	ScanFailures      prometheus.Counter
	ScanSkipped       prometheus.Counter // ticks skipped because a scan was running
	SymbolsScanned    prometheus.Counter
	IndicatorDur      prometheus.Histogram
	SignalsEmitted    *prometheus.CounterVec // labels: direction
	SignalsRejected   *prometheus.CounterVec // labels: reason
	SignalsSuppressed prometheus.Counter     // duplicate within the dedupe window

	// Trade monitor
	TradesRegistered prometheus.Counter
	TradeTransitions *prometheus.CounterVec // labels: status
	ActiveTrades     prometheus.Gauge
	PollCyclesTotal  prometheus.Counter
	PollSkipped      prometheus.Counter
	PriceFetchErrors prometheus.Counter

	// Exchange collaborators
	ExchangeCallDur *prometheus.HistogramVec // labels: call
	ExchangeErrors  *prometheus.CounterVec   // labels: call
	WSReconnects    prometheus.Counter
	BreakerState    prometheus.Gauge // 0=closed, 1=open, 2=half-open
	BreakerTrips    prometheus.Counter
}

// New registers and returns all metrics.
func New() *Metrics {
	m := &Metrics{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalbot_scans_total",
			Help: "Total market scan cycles started",
		}),
		ScanFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalbot_scan_failures_total",
			Help: "Scan cycles where every symbol failed",
		}),
		ScanSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalbot_scan_skipped_total",
			Help: "Scan ticks skipped because the previous cycle was running",
		}),
		SymbolsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalbot_symbols_scanned_total",
			Help: "Symbols evaluated across all scan cycles",
		}),
		IndicatorDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalbot_indicator_compute_duration_seconds",
			Help:    "Indicator set compute latency per symbol",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		}),
		SignalsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_signals_emitted_total",
			Help: "Signals that passed scoring and risk validation",
		}, []string{"direction"}),
		SignalsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_signals_rejected_total",
			Help: "Signals dropped by risk checks (by reason)",
		}, []string{"reason"}),
		SignalsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalbot_signals_suppressed_total",
			Help: "Signals suppressed as duplicates within the dedupe window",
		}),

		TradesRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalbot_trades_registered_total",
			Help: "Trades accepted into the lifecycle monitor",
		}),
		TradeTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_trade_transitions_total",
			Help: "Terminal trade transitions (by status)",
		}, []string{"status"}),
		ActiveTrades: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalbot_active_trades",
			Help: "Currently monitored trades",
		}),
		PollCyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalbot_poll_cycles_total",
			Help: "Trade poll cycles started",
		}),
		PollSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalbot_poll_skipped_total",
			Help: "Poll ticks skipped because the previous cycle was running",
		}),
		PriceFetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalbot_price_fetch_errors_total",
			Help: "Per-trade price fetch failures during polling",
		}),

		ExchangeCallDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signalbot_exchange_call_duration_seconds",
			Help:    "Exchange REST call latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"call"}),
		ExchangeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_exchange_errors_total",
			Help: "Exchange REST call failures",
		}, []string{"call"}),
		WSReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalbot_ws_reconnects_total",
			Help: "Mark price stream reconnection attempts",
		}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalbot_exchange_circuit_breaker_state",
			Help: "Exchange circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		BreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalbot_exchange_circuit_breaker_trips_total",
			Help: "Times the exchange circuit breaker tripped open",
		}),
	}

	prometheus.MustRegister(
		m.ScansTotal,
		m.ScanFailures,
		m.ScanSkipped,
		m.SymbolsScanned,
		m.IndicatorDur,
		m.SignalsEmitted,
		m.SignalsRejected,
		m.SignalsSuppressed,
		m.TradesRegistered,
		m.TradeTransitions,
		m.ActiveTrades,
		m.PollCyclesTotal,
		m.PollSkipped,
		m.PriceFetchErrors,
		m.ExchangeCallDur,
		m.ExchangeErrors,
		m.WSReconnects,
		m.BreakerState,
		m.BreakerTrips,
	)
	return m
}

// HealthStatus tracks collaborator health for the /healthz endpoint.
type HealthStatus struct {
	mu sync.RWMutex

	ExchangeOK     bool
	StreamOK       bool
	RedisConnected bool
	JournalOK      bool
	LastScanAt     time.Time
	ActiveTrades   int

	RedisLatencyMs   float64
	JournalLatencyMs float64
	LastCheckAt      time.Time
	StartedAt        time.Time
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetExchangeOK(v bool) {
	h.mu.Lock()
	h.ExchangeOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetStreamOK(v bool) {
	h.mu.Lock()
	h.StreamOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastScanAt(t time.Time) {
	h.mu.Lock()
	h.LastScanAt = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetActiveTrades(n int) {
	h.mu.Lock()
	h.ActiveTrades = n
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency and connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckJournal pings the journal database and records latency and health.
func (h *HealthStatus) CheckJournal(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.JournalOK = err == nil
	h.JournalLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency probes until ctx ends.
// Either client may be nil when the corresponding collaborator is not
// configured.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, db *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if db != nil {
					h.CheckJournal(probeCtx, db)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overall := "healthy"
	code := http.StatusOK
	if !h.ExchangeOK {
		overall = "degraded"
		code = http.StatusServiceUnavailable
	}

	scanAge := ""
	if !h.LastScanAt.IsZero() {
		scanAge = time.Since(h.LastScanAt).Round(time.Second).String()
	}

	status := struct {
		Status           string  `json:"status"`
		Uptime           string  `json:"uptime"`
		ExchangeOK       bool    `json:"exchange_ok"`
		StreamOK         bool    `json:"stream_ok"`
		LastScanAt       string  `json:"last_scan_at"`
		ScanAge          string  `json:"scan_age"`
		ActiveTrades     int     `json:"active_trades"`
		RedisConnected   bool    `json:"redis_connected"`
		RedisLatencyMs   float64 `json:"redis_latency_ms"`
		JournalOK        bool    `json:"journal_ok"`
		JournalLatencyMs float64 `json:"journal_latency_ms"`
		LastCheckAt      string  `json:"last_check_at"`
	}{
		Status:           overall,
		Uptime:           time.Since(h.StartedAt).Round(time.Second).String(),
		ExchangeOK:       h.ExchangeOK,
		StreamOK:         h.StreamOK,
		LastScanAt:       h.LastScanAt.Format(time.RFC3339),
		ScanAge:          scanAge,
		ActiveTrades:     h.ActiveTrades,
		RedisConnected:   h.RedisConnected,
		RedisLatencyMs:   h.RedisLatencyMs,
		JournalOK:        h.JournalOK,
		JournalLatencyMs: h.JournalLatencyMs,
		LastCheckAt:      h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(status)
}

// Server exposes /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
	log  *slog.Logger
}

// NewServer creates the metrics and health server.
func NewServer(addr string, health *HealthStatus, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
		log:  log,
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("metrics server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Error("metrics server error", "error", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
