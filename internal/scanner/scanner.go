// Package scanner drives the market-scan loop. On each tick it walks the
// configured symbols in bounded concurrent batches: fetch candles and the
// current price, compute the indicator set, score it, derive risk
// parameters, and register accepted signals as trades with the monitor.
//
// A busy flag skips a tick entirely while the previous scan is running.
// Failures isolate to the symbol that produced them; only a cycle in which
// every attempted symbol failed counts toward the repeated-failure alert.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iniduniaku/signaltradingbot/internal/cache"
	"github.com/iniduniaku/signaltradingbot/internal/indicator"
	"github.com/iniduniaku/signaltradingbot/internal/metrics"
	"github.com/iniduniaku/signaltradingbot/internal/model"
	"github.com/iniduniaku/signaltradingbot/internal/monitor"
	"github.com/iniduniaku/signaltradingbot/internal/risk"
	"github.com/iniduniaku/signaltradingbot/internal/scorer"
)

// SignalRecorder appends accepted signals to a durable audit journal.
type SignalRecorder interface {
	RecordSignal(ctx context.Context, ev model.SignalEvent) error
}

// Config holds the scan loop parameters.
type Config struct {
	Symbols      []string      `yaml:"symbols"`
	Interval     string        `yaml:"interval"`     // candle timeframe
	CandleLimit  int           `yaml:"candle_limit"` // candles requested per symbol
	MinCandles   int           `yaml:"min_candles"`  // below this the symbol is skipped
	BatchSize    int           `yaml:"batch_size"`
	BatchDelay   time.Duration `yaml:"batch_delay"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	SnapshotTTL  time.Duration `yaml:"snapshot_ttl"` // futures snapshot reuse window
	DedupeTTL    time.Duration `yaml:"dedupe_ttl"`   // duplicate signal suppression window

	// FailureThreshold is the number of consecutive fully-failed cycles
	// that triggers a single alert before the counter resets.
	FailureThreshold int `yaml:"failure_threshold"`
}

// DefaultConfig returns the standard scan parameters.
func DefaultConfig() Config {
	return Config{
		Interval:         "1h",
		CandleLimit:      100,
		MinCandles:       60,
		BatchSize:        4,
		BatchDelay:       2 * time.Second,
		FetchTimeout:     10 * time.Second,
		SnapshotTTL:      5 * time.Minute,
		DedupeTTL:        30 * time.Minute,
		FailureThreshold: 10,
	}
}

// Deps bundles the scanner's collaborators. Futures, Notifier, Recorder,
// Mirror and Metrics are optional.
type Deps struct {
	Market   model.MarketData
	Futures  model.FuturesData
	Scorer   *scorer.Scorer
	Risk     *risk.Parameterizer
	Monitor  *monitor.Monitor
	Notifier model.Notifier
	Recorder SignalRecorder
	Mirror   *cache.Mirror
	Metrics  *metrics.Metrics
	Log      *slog.Logger
}

// Scanner owns the scan loop state.
type Scanner struct {
	cfg    Config
	indCfg indicator.Config
	deps   Deps
	log    *slog.Logger
	now    func() time.Time

	busy      atomic.Bool
	snapshots *cache.TTL[model.FuturesSnapshot]
	dedupe    *cache.TTL[struct{}]

	// consecutiveFailures is only touched inside Scan, which the busy
	// flag serializes.
	consecutiveFailures int
}

// New creates a Scanner.
func New(cfg Config, indCfg indicator.Config, deps Deps) *Scanner {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{
		cfg:       cfg,
		indCfg:    indCfg,
		deps:      deps,
		log:       log,
		now:       time.Now,
		snapshots: cache.NewTTL[model.FuturesSnapshot](cfg.SnapshotTTL),
		dedupe:    cache.NewTTL[struct{}](cfg.DedupeTTL),
	}
}

// Run scans on every tick until ctx is cancelled or the tick channel is
// closed.
func (s *Scanner) Run(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			s.Scan(ctx)
		}
	}
}

// Scan runs one full market scan. It is skipped when a previous scan is
// still in flight.
func (s *Scanner) Scan(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		if s.deps.Metrics != nil {
			s.deps.Metrics.ScanSkipped.Inc()
		}
		s.log.Debug("scan still running, tick skipped")
		return
	}
	defer s.busy.Store(false)

	if s.deps.Metrics != nil {
		s.deps.Metrics.ScansTotal.Inc()
	}

	var mu sync.Mutex
	var attempted, failed int
	var lastErr error

	batch := s.cfg.BatchSize
	if batch < 1 {
		batch = 1
	}
	symbols := s.cfg.Symbols
	for start := 0; start < len(symbols); start += batch {
		end := start + batch
		if end > len(symbols) {
			end = len(symbols)
		}

		var wg sync.WaitGroup
		for _, symbol := range symbols[start:end] {
			wg.Add(1)
			go func(symbol string) {
				defer wg.Done()
				err := s.scanSymbol(ctx, symbol)
				mu.Lock()
				attempted++
				if err != nil {
					failed++
					lastErr = err
					s.log.Warn("symbol scan failed", "symbol", symbol, "error", err)
				}
				mu.Unlock()
			}(symbol)
		}
		wg.Wait()

		if end < len(symbols) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.BatchDelay):
			}
		}
	}

	s.trackCycleOutcome(ctx, attempted, failed, lastErr)
}

// trackCycleOutcome maintains the consecutive-failure counter. A cycle
// counts as failed only when every attempted symbol errored. Crossing the
// threshold emits one alert, then the counter resets so the alert does not
// repeat every cycle.
func (s *Scanner) trackCycleOutcome(ctx context.Context, attempted, failed int, lastErr error) {
	if attempted == 0 {
		return
	}
	if failed < attempted {
		s.consecutiveFailures = 0
		return
	}

	s.consecutiveFailures++
	if s.deps.Metrics != nil {
		s.deps.Metrics.ScanFailures.Inc()
	}
	if s.consecutiveFailures < s.cfg.FailureThreshold {
		return
	}
	s.consecutiveFailures = 0

	s.log.Error("repeated scan failures", "cycles", s.cfg.FailureThreshold, "error", lastErr)
	if s.deps.Notifier != nil {
		ev := model.ErrorEvent{
			Context:   "market scan",
			Error:     fmt.Sprintf("%d consecutive scan cycles failed: %v", s.cfg.FailureThreshold, lastErr),
			Timestamp: s.now(),
		}
		if err := s.deps.Notifier.NotifyError(ctx, ev); err != nil {
			s.log.Warn("error alert delivery failed", "error", err)
		}
	}
}

// scanSymbol runs the full pipeline for one symbol. A nil return covers
// both "no signal" and "window too short"; only fetch failures count as
// errors.
func (s *Scanner) scanSymbol(ctx context.Context, symbol string) error {
	if s.deps.Metrics != nil {
		s.deps.Metrics.SymbolsScanned.Inc()
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	candles, err := s.deps.Market.Candles(fetchCtx, symbol, s.cfg.Interval, s.cfg.CandleLimit)
	cancel()
	if err != nil {
		return fmt.Errorf("fetch candles: %w", err)
	}
	if len(candles) < s.cfg.MinCandles {
		s.log.Debug("candle window too short", "symbol", symbol, "candles", len(candles))
		return nil
	}

	fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
	price, err := s.deps.Market.Price(fetchCtx, symbol)
	cancel()
	if err != nil {
		return fmt.Errorf("fetch price: %w", err)
	}

	snap := s.snapshot(ctx, symbol)

	start := time.Now()
	set := indicator.Compute(candles, snap, s.indCfg)
	if s.deps.Metrics != nil {
		s.deps.Metrics.IndicatorDur.Observe(time.Since(start).Seconds())
	}

	sig := s.deps.Scorer.Score(symbol, set, price)
	if sig == nil {
		return nil
	}

	dedupeKey := symbol + ":" + string(sig.Direction)
	if s.dedupe.Has(dedupeKey) {
		if s.deps.Metrics != nil {
			s.deps.Metrics.SignalsSuppressed.Inc()
		}
		s.log.Debug("duplicate signal suppressed", "symbol", symbol, "direction", sig.Direction)
		return nil
	}

	params, assessment, err := s.deps.Risk.Derive(sig, set, price)
	if err != nil {
		s.reject(sig, rejectReason(err))
		return nil
	}
	if assessment.Level == model.RiskExtreme {
		s.reject(sig, "extreme_risk")
		return nil
	}
	sig.RiskLevel = assessment.Level
	sig.Warnings = assessment.Warnings

	trade, created := s.deps.Monitor.Register(sig, params, price)
	if !created {
		if s.deps.Metrics != nil {
			s.deps.Metrics.SignalsSuppressed.Inc()
		}
		return nil
	}
	s.dedupe.Set(dedupeKey, struct{}{})

	if s.deps.Metrics != nil {
		s.deps.Metrics.SignalsEmitted.WithLabelValues(string(sig.Direction)).Inc()
		s.deps.Metrics.TradesRegistered.Inc()
	}
	s.log.Info("signal accepted",
		"trade", trade.ID,
		"direction", sig.Direction,
		"strength", sig.Strength,
		"confidence", sig.Confidence,
		"risk_level", sig.RiskLevel,
	)

	s.publish(ctx, model.SignalEvent{
		Symbol:           symbol,
		CurrentPrice:     price,
		EntryPrice:       params.EntryPrice,
		TakeProfits:      params.TakeProfits,
		StopLoss:         params.StopLoss,
		RiskRewardRatios: params.RiskRewardRatios,
		Position:         params.Position,
		Indicators:       set,
		Signal:           sig,
		Timestamp:        s.now(),
	})
	return nil
}

func (s *Scanner) reject(sig *model.Signal, reason string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.SignalsRejected.WithLabelValues(reason).Inc()
	}
	s.log.Debug("signal rejected",
		"symbol", sig.Symbol,
		"direction", sig.Direction,
		"reason", reason,
	)
}

func rejectReason(err error) string {
	if errors.Is(err, risk.ErrRiskRewardTooLow) {
		return "reward_gate"
	}
	return "insufficient_data"
}

// publish fans an accepted signal out to the notification, journal and
// mirror collaborators. Each delivery fails soft.
func (s *Scanner) publish(ctx context.Context, ev model.SignalEvent) {
	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.NotifySignal(ctx, ev); err != nil {
			s.log.Warn("signal notification failed", "symbol", ev.Symbol, "error", err)
		}
	}
	if s.deps.Recorder != nil {
		if err := s.deps.Recorder.RecordSignal(ctx, ev); err != nil {
			s.log.Warn("signal journal write failed", "symbol", ev.Symbol, "error", err)
		}
	}
	if s.deps.Mirror != nil {
		s.deps.Mirror.PublishSignal(ctx, ev)
	}
}

// snapshot returns the cached futures snapshot for symbol, fetching a
// fresh one when the cache entry expired. Futures data is optional: any
// failure yields nil and the futures category is simply absent from
// scoring.
func (s *Scanner) snapshot(ctx context.Context, symbol string) *model.FuturesSnapshot {
	if s.deps.Futures == nil {
		return nil
	}
	if snap, ok := s.snapshots.Get(symbol); ok {
		return &snap
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	snap, err := s.deps.Futures.Snapshot(fetchCtx, symbol)
	if err != nil {
		s.log.Debug("futures snapshot unavailable", "symbol", symbol, "error", err)
		return nil
	}
	s.snapshots.Set(symbol, snap)
	if s.deps.Mirror != nil {
		s.deps.Mirror.PublishSnapshot(ctx, symbol, snap)
	}
	return &snap
}
