// Package monitor tracks accepted signals as live trades. Each trade runs
// a small state machine: ACTIVE until the entry fills, then ordered
// take-profit levels, an independent stop-loss, and a hard expiry. Every
// terminal transition archives the trade into a bounded in-memory history.
//
// Trades are polled in bounded concurrent batches on an externally driven
// tick. A busy flag skips a tick entirely when the previous cycle is still
// running, so at most one poll cycle is ever in flight and each trade id
// is touched by at most one task per cycle.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iniduniaku/signaltradingbot/internal/metrics"
	"github.com/iniduniaku/signaltradingbot/internal/model"
)

var (
	// ErrTradeNotFound is returned when no trade with the given id exists
	// in the active registry.
	ErrTradeNotFound = errors.New("trade not found")

	// ErrTradeNotActive is returned when a manual removal targets a trade
	// that already reached a terminal status.
	ErrTradeNotActive = errors.New("trade is not active")
)

// Config holds the monitor's polling and lifecycle parameters.
type Config struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	BatchSize       int           `yaml:"batch_size"`
	BatchDelay      time.Duration `yaml:"batch_delay"`
	TradeTTL        time.Duration `yaml:"trade_ttl"`
	ArchiveCapacity int           `yaml:"archive_capacity"`
	PriceTimeout    time.Duration `yaml:"price_timeout"`
}

// DefaultConfig returns the standard polling cadence: 2 minute poll tick,
// batches of 4 with a short delay between batches, 24 hour trade expiry
// and a 50-entry archive.
func DefaultConfig() Config {
	return Config{
		PollInterval:    2 * time.Minute,
		BatchSize:       4,
		BatchDelay:      2 * time.Second,
		TradeTTL:        24 * time.Hour,
		ArchiveCapacity: 50,
		PriceTimeout:    10 * time.Second,
	}
}

// Monitor owns the active-trade registry and the terminal-trade archive.
// Registration and manual removal may be called from any goroutine; trade
// mutation during a poll cycle happens under the registry lock, one writer
// per trade id.
type Monitor struct {
	cfg      Config
	market   model.MarketData
	notifier model.Notifier
	met      *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time

	busy atomic.Bool

	mu      sync.Mutex
	trades  map[string]*model.Trade
	history *archive
}

// New creates a Monitor. notifier may be nil, in which case lifecycle
// events are logged only.
func New(cfg Config, market model.MarketData, notifier model.Notifier, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		cfg:      cfg,
		market:   market,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		trades:   make(map[string]*model.Trade),
		history:  newArchive(cfg.ArchiveCapacity),
	}
}

// WithMetrics attaches pipeline metrics and returns the monitor.
func (m *Monitor) WithMetrics(met *metrics.Metrics) *Monitor {
	m.met = met
	return m
}

// Register creates an ACTIVE trade from an accepted signal and its derived
// risk parameters. The trade id is bucketed to the creation minute, so
// re-registering the same signal within the same minute returns the
// existing trade with created=false.
func (m *Monitor) Register(sig *model.Signal, params *model.RiskParameters, price float64) (model.Trade, bool) {
	now := m.now()
	id := model.TradeID(sig.Symbol, sig.Direction, now)

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.trades[id]; ok {
		return *existing, false
	}

	t := &model.Trade{
		ID:            id,
		Symbol:        sig.Symbol,
		Direction:     sig.Direction,
		EntryPrice:    params.EntryPrice,
		CurrentPrice:  price,
		TakeProfits:   params.TakeProfits,
		StopLoss:      params.StopLoss,
		Position:      params.Position,
		Status:        model.StatusActive,
		CreatedAt:     now,
		LastCheckedAt: now,
	}
	m.trades[id] = t

	m.log.Info("trade registered",
		"trade", id,
		"direction", t.Direction,
		"entry", t.EntryPrice,
		"stop", t.StopLoss,
		"leverage", t.Position.Leverage,
	)
	return *t, true
}

// Run polls on every tick until ctx is cancelled or the tick channel is
// closed. In-flight work is not cancelled mid-cycle; shutdown stops future
// scheduling and lets the current cycle finish.
func (m *Monitor) Run(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			m.Poll(ctx)
		}
	}
}

// Poll runs one monitoring cycle over all active trades in bounded
// concurrent batches. The cycle is skipped entirely when a previous one is
// still running.
func (m *Monitor) Poll(ctx context.Context) {
	if !m.busy.CompareAndSwap(false, true) {
		if m.met != nil {
			m.met.PollSkipped.Inc()
		}
		m.log.Debug("poll cycle still running, tick skipped")
		return
	}
	defer m.busy.Store(false)

	if m.met != nil {
		m.met.PollCyclesTotal.Inc()
	}

	ids := m.activeIDs()
	batch := m.cfg.BatchSize
	if batch < 1 {
		batch = 1
	}

	for start := 0; start < len(ids); start += batch {
		end := start + batch
		if end > len(ids) {
			end = len(ids)
		}

		var wg sync.WaitGroup
		for _, id := range ids[start:end] {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				m.checkTrade(ctx, id)
			}(id)
		}
		wg.Wait()

		if end < len(ids) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.cfg.BatchDelay):
			}
		}
	}
}

// checkTrade fetches the trade's price with its own timeout and applies
// the state machine. A fetch failure is logged and leaves the trade
// untouched until the next cycle.
func (m *Monitor) checkTrade(ctx context.Context, id string) {
	m.mu.Lock()
	t, ok := m.trades[id]
	var symbol string
	if ok && t.Status == model.StatusActive {
		symbol = t.Symbol
	}
	m.mu.Unlock()
	if symbol == "" {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, m.cfg.PriceTimeout)
	defer cancel()
	price, err := m.market.Price(fetchCtx, symbol)
	if err != nil {
		if m.met != nil {
			m.met.PriceFetchErrors.Inc()
		}
		m.log.Warn("price fetch failed, trade unchanged", "trade", id, "error", err)
		return
	}

	for _, ev := range m.apply(id, price) {
		m.log.Info("trade event", "trade", id, "type", ev.Type, "price", ev.Price)
		if m.notifier != nil {
			if err := m.notifier.NotifyTrade(ctx, ev); err != nil {
				m.log.Warn("trade notification failed", "trade", id, "error", err)
			}
		}
	}
}

// apply advances the state machine for one trade at the observed price and
// returns the lifecycle events produced. Expiry is evaluated first and
// overrides price checks; TP/SL checks are gated on the entry fill; the
// stop is independent of take-profit progress; take-profit levels cascade
// in strict order within a single observation.
func (m *Monitor) apply(id string, price float64) []model.TradeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trades[id]
	if !ok || t.Status != model.StatusActive {
		return nil
	}

	now := m.now()
	t.CurrentPrice = price
	t.LastCheckedAt = now
	long := t.Direction == model.DirectionLong

	var events []model.TradeEvent
	emit := func(typ model.TradeEventType, msg string) {
		t.Notifications = append(t.Notifications, msg)
		events = append(events, model.TradeEvent{
			Symbol:    t.Symbol,
			Type:      typ,
			Price:     price,
			Message:   msg,
			Timestamp: now,
		})
	}

	if now.Sub(t.CreatedAt) > m.cfg.TradeTTL {
		t.Status = model.StatusExpired
		emit(model.EventExpired, fmt.Sprintf("expired after %s without completing", m.cfg.TradeTTL))
		m.archiveLocked(t)
		return events
	}

	if !t.EntryFilled {
		filled := (long && price <= t.EntryPrice) || (!long && price >= t.EntryPrice)
		if !filled {
			return events
		}
		t.EntryFilled = true
		emit(model.EventEntryFilled, fmt.Sprintf("entry filled at %g", price))
	}

	move := (price - t.EntryPrice) / t.EntryPrice
	if !long {
		move = -move
	}
	t.PnL = move * float64(t.Position.Leverage) * t.Position.Margin
	if t.PnL > t.MaxPnL {
		t.MaxPnL = t.PnL
	}
	if t.PnL < t.MinPnL {
		t.MinPnL = t.PnL
	}

	if (long && price <= t.StopLoss) || (!long && price >= t.StopLoss) {
		t.SLHit = true
		t.Status = model.StatusStoppedOut
		emit(model.EventSLHit, fmt.Sprintf("stop loss hit at %g", price))
		m.archiveLocked(t)
		return events
	}

	reached := func(level float64) bool {
		if long {
			return price >= level
		}
		return price <= level
	}
	if !t.TPHit.TP1 && reached(t.TakeProfits.TP1) {
		t.TPHit.TP1 = true
		emit(model.EventTPHit, fmt.Sprintf("take profit 1 hit at %g", price))
	}
	if t.TPHit.TP1 && !t.TPHit.TP2 && reached(t.TakeProfits.TP2) {
		t.TPHit.TP2 = true
		emit(model.EventTPHit, fmt.Sprintf("take profit 2 hit at %g", price))
	}
	if t.TPHit.TP2 && !t.TPHit.TP3 && reached(t.TakeProfits.TP3) {
		t.TPHit.TP3 = true
		t.Status = model.StatusCompleted
		emit(model.EventTPHit, fmt.Sprintf("take profit 3 hit at %g, trade completed", price))
		m.archiveLocked(t)
	}
	return events
}

// ManualRemove forces an ACTIVE trade into the terminal MANUAL_REMOVAL
// status, bypassing price checks, and archives it.
func (m *Monitor) ManualRemove(id string) (model.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trades[id]
	if !ok {
		return model.Trade{}, ErrTradeNotFound
	}
	if t.Status != model.StatusActive {
		return model.Trade{}, ErrTradeNotActive
	}

	t.Status = model.StatusManualRemoval
	t.LastCheckedAt = m.now()
	t.Notifications = append(t.Notifications, "removed manually")
	removed := *t
	m.archiveLocked(t)

	m.log.Info("trade removed manually", "trade", id)
	return removed, nil
}

// Get returns a copy of an active trade.
func (m *Monitor) Get(id string) (model.Trade, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trades[id]
	if !ok {
		return model.Trade{}, false
	}
	return *t, true
}

// Active returns copies of all active trades, ordered by id.
func (m *Monitor) Active() []model.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Trade, 0, len(m.trades))
	for _, t := range m.trades {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Archived returns the terminal-trade history, newest first.
func (m *Monitor) Archived() []model.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.items()
}

func (m *Monitor) activeIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.trades))
	for id := range m.trades {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// archiveLocked copies a terminal trade into the history and drops it from
// the active registry. Caller holds mu.
func (m *Monitor) archiveLocked(t *model.Trade) {
	m.history.push(*t)
	delete(m.trades, t.ID)
	if m.met != nil {
		m.met.TradeTransitions.WithLabelValues(string(t.Status)).Inc()
	}
	m.log.Info("trade archived", "trade", t.ID, "status", t.Status, "pnl", t.PnL)
}
