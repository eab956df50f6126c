// Package admin exposes a small operator HTTP surface: inspect active
// and archived trades, read recent journal entries, and manually remove
// a trade. Mutations require a time-based one-time password so a leaked
// URL alone cannot close positions.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/iniduniaku/signaltradingbot/internal/journal"
	"github.com/iniduniaku/signaltradingbot/internal/monitor"
)

// totpHeader carries the one-time code on guarded requests.
const totpHeader = "X-Admin-OTP"

// Config holds admin server settings.
type Config struct {
	Addr string `yaml:"addr"`

	// TOTPSecret guards mutating endpoints. Empty disables them.
	TOTPSecret string `yaml:"totp_secret"`
}

// Server is the admin HTTP server.
type Server struct {
	cfg     Config
	monitor *monitor.Monitor
	journal *journal.Journal
	srv     *http.Server
	log     *slog.Logger
}

// NewServer creates the admin server. journal may be nil.
func NewServer(cfg Config, mon *monitor.Monitor, jrnl *journal.Journal, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{cfg: cfg, monitor: mon, journal: jrnl, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/trades", s.handleActiveTrades)
	mux.HandleFunc("GET /admin/trades/archived", s.handleArchivedTrades)
	mux.HandleFunc("GET /admin/journal/signals", s.handleJournalSignals)
	mux.HandleFunc("GET /admin/journal/events", s.handleJournalEvents)
	mux.HandleFunc("POST /admin/trades/{id}/remove", s.guard(s.handleRemoveTrade))

	s.srv = &http.Server{Addr: cfg.Addr, Handler: mux}
	return s
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("admin server listening", "addr", s.cfg.Addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Error("admin server error", "error", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}

// guard validates the TOTP header before passing the request on.
func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.TOTPSecret == "" {
			writeError(w, http.StatusForbidden, "mutating endpoints disabled, no TOTP secret configured")
			return
		}
		code := r.Header.Get(totpHeader)
		if code == "" || !totp.Validate(code, s.cfg.TOTPSecret) {
			s.log.Warn("admin request rejected", "path", r.URL.Path, "remote", r.RemoteAddr)
			writeError(w, http.StatusUnauthorized, "invalid or missing one-time code")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleActiveTrades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Active())
}

func (s *Server) handleArchivedTrades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Archived())
}

func (s *Server) handleJournalSignals(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "journal not configured")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	recs, err := s.journal.RecentSignals(ctx, queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleJournalEvents(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "journal not configured")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	recs, err := s.journal.RecentTradeEvents(ctx, queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleRemoveTrade(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	trade, err := s.monitor.ManualRemove(id)
	switch {
	case errors.Is(err, monitor.ErrTradeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.log.Info("trade removed by operator", "id", id, "symbol", trade.Symbol)
	writeJSON(w, http.StatusOK, trade)
}

func queryLimit(r *http.Request) int {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	return limit
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
