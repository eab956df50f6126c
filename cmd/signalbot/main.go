// Command signalbot runs the full signal pipeline: periodic market scans
// over a symbol universe, signal scoring and risk derivation, trade
// lifecycle monitoring, and the operator surfaces (metrics, health,
// admin API).
package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/iniduniaku/signaltradingbot/config"
	"github.com/iniduniaku/signaltradingbot/internal/admin"
	"github.com/iniduniaku/signaltradingbot/internal/cache"
	"github.com/iniduniaku/signaltradingbot/internal/exchange"
	"github.com/iniduniaku/signaltradingbot/internal/journal"
	"github.com/iniduniaku/signaltradingbot/internal/logger"
	"github.com/iniduniaku/signaltradingbot/internal/metrics"
	"github.com/iniduniaku/signaltradingbot/internal/model"
	"github.com/iniduniaku/signaltradingbot/internal/monitor"
	"github.com/iniduniaku/signaltradingbot/internal/notification"
	"github.com/iniduniaku/signaltradingbot/internal/risk"
	"github.com/iniduniaku/signaltradingbot/internal/scanner"
	"github.com/iniduniaku/signaltradingbot/internal/scheduler"
	"github.com/iniduniaku/signaltradingbot/internal/scorer"
)

// streamFreshness bounds how old a streamed price may be before the
// monitor falls back to REST and health reports the stream degraded.
const streamFreshness = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("signalbot", logger.ParseLevel("info")).Error("config load failed", "error", err)
		os.Exit(1)
	}
	log := logger.Init("signalbot", logger.ParseLevel(cfg.LogLevel))
	log.Info("starting", "symbols", len(cfg.Scanner.Symbols), "interval", cfg.Scanner.Interval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	met := metrics.New()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health, log)
	metricsSrv.Start()

	client := exchange.New(cfg.Exchange, met, log)

	// Streamed mark prices front the REST price endpoint for monitoring.
	prices := exchange.NewStreamPrices(client, streamFreshness)
	var lastMark atomic.Int64
	stream := exchange.NewMarkPriceStream(cfg.Stream, func(mp exchange.MarkPrice) {
		prices.Update(mp)
		lastMark.Store(time.Now().UnixNano())
	}, met, log)
	go stream.Run(ctx)

	var mirror *cache.Mirror
	if cfg.RedisEnabled {
		mirror, err = cache.NewMirror(cfg.Redis, log)
		if err != nil {
			log.Error("redis mirror unavailable, continuing without it", "error", err)
		} else {
			defer mirror.Close()
		}
	}

	jrnl, err := journal.Open(cfg.JournalPath, log)
	if err != nil {
		log.Error("journal open failed", "error", err)
		os.Exit(1)
	}
	defer jrnl.Close()

	notifier := buildNotifier(cfg)

	mon := monitor.New(cfg.Monitor, prices, notification.NewMulti(
		notifier,
		&journalNotifier{jrnl: jrnl},
		&mirrorNotifier{mirror: mirror},
	), log).WithMetrics(met)

	scan := scanner.New(cfg.Scanner, cfg.Strategy.Indicator, scanner.Deps{
		Market:   client,
		Futures:  client,
		Scorer:   scorer.New(cfg.Strategy.Scorer),
		Risk:     risk.New(cfg.Strategy.Risk),
		Monitor:  mon,
		Notifier: notifier,
		Recorder: jrnl,
		Mirror:   mirror,
		Metrics:  met,
		Log:      log,
	})

	adminSrv := admin.NewServer(cfg.Admin, mon, jrnl, log)
	adminSrv.Start()

	health.StartLivenessChecker(ctx, mirrorClient(mirror), jrnl.DB(), 30*time.Second)
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				health.SetExchangeOK(client.BreakerState() != exchange.BreakerOpen)
				health.SetStreamOK(time.Since(time.Unix(0, lastMark.Load())) < streamFreshness)
				active := mon.Active()
				health.SetActiveTrades(len(active))
				met.ActiveTrades.Set(float64(len(active)))
			}
		}
	}()
	health.SetExchangeOK(true)

	scanInterval, err := scanCadence(cfg.Scanner.Interval)
	if err != nil {
		log.Error("invalid scan interval", "interval", cfg.Scanner.Interval, "error", err)
		os.Exit(1)
	}
	scanTicks := scheduler.Every(scanInterval, true)
	defer scanTicks.Stop()
	pollTicks := scheduler.Every(cfg.Monitor.PollInterval, false)
	defer pollTicks.Stop()

	go mon.Run(ctx, pollTicks.Ticks())
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-scanTicks.Ticks():
				if !ok {
					return
				}
				scan.Scan(ctx)
				health.SetLastScanAt(time.Now())
			}
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	adminSrv.Stop(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)
}

// buildNotifier assembles the outbound notification fan-out. With no
// external channel configured, events go to the structured log.
func buildNotifier(cfg *config.Config) model.Notifier {
	var backends []model.Notifier
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		backends = append(backends, notification.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if cfg.WebhookURL != "" {
		backends = append(backends, notification.NewWebhook(cfg.WebhookURL))
	}
	if len(backends) == 0 {
		backends = append(backends, notification.NewLog(nil))
	}
	return notification.NewMulti(backends...)
}

// scanCadence maps the candle interval to a scan period. Scanning twice
// per candle keeps signals responsive without rescoring a stale window
// too often.
func scanCadence(interval string) (time.Duration, error) {
	d, err := time.ParseDuration(interval)
	if err != nil {
		return 0, err
	}
	if d >= 2*time.Minute {
		return d / 2, nil
	}
	return d, nil
}

// journalNotifier appends trade lifecycle events to the audit journal.
type journalNotifier struct {
	jrnl *journal.Journal
}

func (n *journalNotifier) NotifySignal(context.Context, model.SignalEvent) error { return nil }

func (n *journalNotifier) NotifyTrade(ctx context.Context, ev model.TradeEvent) error {
	return n.jrnl.RecordTradeEvent(ctx, ev)
}

func (n *journalNotifier) NotifyError(context.Context, model.ErrorEvent) error { return nil }

// mirrorNotifier publishes trade lifecycle events to the Redis mirror.
type mirrorNotifier struct {
	mirror *cache.Mirror
}

func (n *mirrorNotifier) NotifySignal(context.Context, model.SignalEvent) error { return nil }

func (n *mirrorNotifier) NotifyTrade(ctx context.Context, ev model.TradeEvent) error {
	if n.mirror != nil {
		n.mirror.PublishTradeEvent(ctx, ev)
	}
	return nil
}

func (n *mirrorNotifier) NotifyError(context.Context, model.ErrorEvent) error { return nil }

func mirrorClient(m *cache.Mirror) *goredis.Client {
	if m == nil {
		return nil
	}
	return m.Client()
}
