// Package journal persists emitted signals and trade lifecycle events to
// SQLite for analysis and audit. The journal is append-only from the
// pipeline's point of view: nothing in the runtime ever reads it back
// into state, the query helpers exist for the admin surface and offline
// review.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/iniduniaku/signaltradingbot/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS signals (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol      TEXT NOT NULL,
	direction   TEXT NOT NULL,
	strength    REAL NOT NULL,
	confidence  TEXT NOT NULL,
	risk_level  TEXT NOT NULL,
	entry       REAL NOT NULL,
	stop_loss   REAL NOT NULL,
	tp1         REAL NOT NULL,
	tp2         REAL NOT NULL,
	tp3         REAL NOT NULL,
	leverage    INTEGER NOT NULL,
	margin      REAL NOT NULL,
	payload     TEXT NOT NULL,
	emitted_at  DATETIME NOT NULL,
	created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_signals_symbol ON signals(symbol);
CREATE INDEX IF NOT EXISTS idx_signals_emitted_at ON signals(emitted_at);

CREATE TABLE IF NOT EXISTS trade_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol      TEXT NOT NULL,
	event       TEXT NOT NULL,
	price       REAL NOT NULL,
	message     TEXT,
	emitted_at  DATETIME NOT NULL,
	created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_trade_events_symbol ON trade_events(symbol);
`

// Journal is a single-writer SQLite audit log.
type Journal struct {
	mu  sync.Mutex
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the journal database at dbPath with WAL mode.
func Open(dbPath string, log *slog.Logger) (*Journal, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	log.Info("signal journal opened", "path", dbPath)
	return &Journal{db: db, log: log}, nil
}

// DB returns the underlying database for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// RecordSignal appends an emitted signal. The full event is kept as JSON
// next to the indexed columns.
func (j *Journal) RecordSignal(ctx context.Context, ev model.SignalEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("journal marshal signal: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	_, err = j.db.ExecContext(ctx,
		`INSERT INTO signals (symbol, direction, strength, confidence, risk_level,
			entry, stop_loss, tp1, tp2, tp3, leverage, margin, payload, emitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Symbol,
		string(ev.Signal.Direction),
		ev.Signal.Strength,
		string(ev.Signal.Confidence),
		string(ev.Signal.RiskLevel),
		ev.EntryPrice,
		ev.StopLoss,
		ev.TakeProfits.TP1,
		ev.TakeProfits.TP2,
		ev.TakeProfits.TP3,
		ev.Position.Leverage,
		ev.Position.Margin,
		string(payload),
		ev.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("journal insert signal: %w", err)
	}
	return nil
}

// RecordTradeEvent appends a trade lifecycle event.
func (j *Journal) RecordTradeEvent(ctx context.Context, ev model.TradeEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO trade_events (symbol, event, price, message, emitted_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.Symbol,
		string(ev.Type),
		ev.Price,
		ev.Message,
		ev.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("journal insert trade event: %w", err)
	}
	return nil
}

// SignalRecord is one row from the signals table.
type SignalRecord struct {
	ID        int64   `json:"id"`
	Symbol    string  `json:"symbol"`
	Direction string  `json:"direction"`
	Strength  float64 `json:"strength"`
	RiskLevel string  `json:"risk_level"`
	Entry     float64 `json:"entry"`
	StopLoss  float64 `json:"stop_loss"`
	EmittedAt string  `json:"emitted_at"`
}

// RecentSignals returns the last limit signals, newest first.
func (j *Journal) RecentSignals(ctx context.Context, limit int) ([]SignalRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, symbol, direction, strength, risk_level, entry, stop_loss, emitted_at
		 FROM signals ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal query signals: %w", err)
	}
	defer rows.Close()

	var out []SignalRecord
	for rows.Next() {
		var r SignalRecord
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Direction, &r.Strength,
			&r.RiskLevel, &r.Entry, &r.StopLoss, &r.EmittedAt); err != nil {
			return nil, fmt.Errorf("journal scan signal: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TradeEventRecord is one row from the trade_events table.
type TradeEventRecord struct {
	ID        int64   `json:"id"`
	Symbol    string  `json:"symbol"`
	Event     string  `json:"event"`
	Price     float64 `json:"price"`
	Message   string  `json:"message"`
	EmittedAt string  `json:"emitted_at"`
}

// RecentTradeEvents returns the last limit trade events, newest first.
func (j *Journal) RecentTradeEvents(ctx context.Context, limit int) ([]TradeEventRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, symbol, event, price, message, emitted_at
		 FROM trade_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal query trade events: %w", err)
	}
	defer rows.Close()

	var out []TradeEventRecord
	for rows.Next() {
		var r TradeEventRecord
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Event, &r.Price, &r.Message, &r.EmittedAt); err != nil {
			return nil, fmt.Errorf("journal scan trade event: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
