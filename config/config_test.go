package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Scanner.Symbols) == 0 {
		t.Fatal("default symbol universe empty")
	}
	if cfg.Scanner.Interval != "1h" {
		t.Fatalf("interval = %s", cfg.Scanner.Interval)
	}
	if cfg.Monitor.PollInterval != 2*time.Minute {
		t.Fatalf("poll interval = %v", cfg.Monitor.PollInterval)
	}
	if cfg.Strategy.Scorer.MinConfidence != 65 {
		t.Fatalf("min confidence = %v", cfg.Strategy.Scorer.MinConfidence)
	}
	if cfg.RedisEnabled {
		t.Fatal("redis must be off without REDIS_ADDR")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SYMBOLS", " btcusdt, ethusdt ")
	t.Setenv("POLL_INTERVAL", "30s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("BINANCE_TESTNET", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Scanner.Symbols) != 2 || cfg.Scanner.Symbols[0] != "BTCUSDT" {
		t.Fatalf("symbols = %v", cfg.Scanner.Symbols)
	}
	if cfg.Monitor.PollInterval != 30*time.Second {
		t.Fatalf("poll interval = %v", cfg.Monitor.PollInterval)
	}
	if !cfg.RedisEnabled || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("redis config = %+v", cfg.Redis)
	}
	if !cfg.Exchange.Testnet || !cfg.Stream.Testnet {
		t.Fatal("testnet flag must reach exchange and stream")
	}
}

func TestLoad_BadDurationIsError(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoad_StrategyFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	data := []byte(`
scorer:
  min_confidence: 70
risk:
  max_leverage: 10
  high:
    entry_atr: 0.25
    take_profit_atr: [2.5, 4.0, 6.0]
    stop_atr: 1.1
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write strategy: %v", err)
	}
	t.Setenv("STRATEGY_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Strategy.Scorer.MinConfidence != 70 {
		t.Fatalf("min confidence = %v, want 70", cfg.Strategy.Scorer.MinConfidence)
	}
	if cfg.Strategy.Risk.MaxLeverage != 10 {
		t.Fatalf("max leverage = %d, want 10", cfg.Strategy.Risk.MaxLeverage)
	}
	if cfg.Strategy.Risk.High.StopATR != 1.1 {
		t.Fatalf("high stop atr = %v, want 1.1", cfg.Strategy.Risk.High.StopATR)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Strategy.Indicator.ATRPeriod != 14 {
		t.Fatalf("atr period = %d, want default 14", cfg.Strategy.Indicator.ATRPeriod)
	}
}

func TestLoad_MissingStrategyFileIsError(t *testing.T) {
	t.Setenv("STRATEGY_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing strategy file")
	}
}
