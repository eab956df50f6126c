// Package notification delivers pipeline events to external channels.
// Backends implement model.Notifier; Multi fans a single event out to
// several backends and keeps delivering even when one of them fails.
package notification

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iniduniaku/signaltradingbot/internal/model"
)

// Log is a notifier that writes events to structured logs. Used in
// development and as a last-resort channel when no backend is configured.
type Log struct {
	log *slog.Logger
}

// NewLog creates a log-backed notifier.
func NewLog(log *slog.Logger) *Log {
	if log == nil {
		log = slog.Default()
	}
	return &Log{log: log}
}

func (n *Log) NotifySignal(_ context.Context, ev model.SignalEvent) error {
	n.log.Info("signal",
		"symbol", ev.Symbol,
		"direction", ev.Signal.Direction,
		"strength", ev.Signal.Strength,
		"confidence", ev.Signal.Confidence,
		"risk_level", ev.Signal.RiskLevel,
		"entry", ev.EntryPrice,
		"stop", ev.StopLoss,
		"tp1", ev.TakeProfits.TP1,
		"tp2", ev.TakeProfits.TP2,
		"tp3", ev.TakeProfits.TP3,
		"leverage", ev.Position.Leverage,
	)
	return nil
}

func (n *Log) NotifyTrade(_ context.Context, ev model.TradeEvent) error {
	n.log.Info("trade event",
		"symbol", ev.Symbol,
		"type", ev.Type,
		"price", ev.Price,
		"message", ev.Message,
	)
	return nil
}

func (n *Log) NotifyError(_ context.Context, ev model.ErrorEvent) error {
	n.log.Error("pipeline alert", "context", ev.Context, "error", ev.Error)
	return nil
}

// Multi fans events out to every backend. Delivery failures are joined
// and returned after all backends were attempted.
type Multi struct {
	backends []model.Notifier
}

// NewMulti creates a fan-out notifier over backends. Nil entries are
// skipped.
func NewMulti(backends ...model.Notifier) *Multi {
	kept := make([]model.Notifier, 0, len(backends))
	for _, b := range backends {
		if b != nil {
			kept = append(kept, b)
		}
	}
	return &Multi{backends: kept}
}

func (m *Multi) NotifySignal(ctx context.Context, ev model.SignalEvent) error {
	var errs []error
	for _, b := range m.backends {
		if err := b.NotifySignal(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) NotifyTrade(ctx context.Context, ev model.TradeEvent) error {
	var errs []error
	for _, b := range m.backends {
		if err := b.NotifyTrade(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) NotifyError(ctx context.Context, ev model.ErrorEvent) error {
	var errs []error
	for _, b := range m.backends {
		if err := b.NotifyError(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
