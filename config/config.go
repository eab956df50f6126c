// Package config loads application configuration. Operational settings
// (credentials, addresses, cadence) come from environment variables;
// strategy tuning (indicator periods, scoring weights, risk tiers) comes
// from an optional YAML file layered over the built-in defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/iniduniaku/signaltradingbot/internal/admin"
	"github.com/iniduniaku/signaltradingbot/internal/cache"
	"github.com/iniduniaku/signaltradingbot/internal/exchange"
	"github.com/iniduniaku/signaltradingbot/internal/indicator"
	"github.com/iniduniaku/signaltradingbot/internal/monitor"
	"github.com/iniduniaku/signaltradingbot/internal/risk"
	"github.com/iniduniaku/signaltradingbot/internal/scanner"
	"github.com/iniduniaku/signaltradingbot/internal/scorer"
)

// Strategy groups the tunable pipeline parameters carried by the YAML
// strategy file. Absent keys keep their defaults.
type Strategy struct {
	Indicator indicator.Config `yaml:"indicator"`
	Scorer    scorer.Config    `yaml:"scorer"`
	Risk      risk.Config      `yaml:"risk"`
}

// Config holds the full application configuration.
type Config struct {
	LogLevel string

	Exchange exchange.Config
	Stream   exchange.StreamConfig
	Scanner  scanner.Config
	Monitor  monitor.Config
	Strategy Strategy

	MetricsAddr string
	Admin       admin.Config

	RedisEnabled bool
	Redis        cache.MirrorConfig

	JournalPath string

	TelegramBotToken string
	TelegramChatID   string
	WebhookURL       string
}

// defaultSymbols is the scan universe used when SYMBOLS is not set.
var defaultSymbols = []string{
	"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "XRPUSDT",
	"ADAUSDT", "DOGEUSDT", "AVAXUSDT", "LINKUSDT", "DOTUSDT",
}

// Load reads configuration from the environment and, when STRATEGY_FILE
// points at a YAML file, layers strategy tuning over the defaults.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Exchange: exchange.DefaultConfig(),
		Scanner:  scanner.DefaultConfig(),
		Monitor:  monitor.DefaultConfig(),
		Strategy: Strategy{
			Indicator: indicator.DefaultConfig(),
			Scorer:    scorer.DefaultConfig(),
			Risk:      risk.DefaultConfig(),
		},

		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		Admin: admin.Config{
			Addr:       getEnv("ADMIN_ADDR", ":9091"),
			TOTPSecret: getEnv("ADMIN_TOTP_SECRET", ""),
		},

		JournalPath: getEnv("JOURNAL_PATH", "data/signals.db"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}

	cfg.Exchange.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.Exchange.APISecret = getEnv("BINANCE_API_SECRET", "")
	cfg.Exchange.Testnet = getBool("BINANCE_TESTNET", false)

	cfg.Scanner.Symbols = getList("SYMBOLS", defaultSymbols)
	cfg.Scanner.Interval = getEnv("SCAN_INTERVAL", cfg.Scanner.Interval)
	var err error
	if cfg.Scanner.BatchSize, err = getInt("SCAN_BATCH_SIZE", cfg.Scanner.BatchSize); err != nil {
		return nil, err
	}
	if cfg.Scanner.FailureThreshold, err = getInt("SCAN_FAILURE_THRESHOLD", cfg.Scanner.FailureThreshold); err != nil {
		return nil, err
	}

	if cfg.Monitor.PollInterval, err = getDuration("POLL_INTERVAL", cfg.Monitor.PollInterval); err != nil {
		return nil, err
	}
	if cfg.Monitor.TradeTTL, err = getDuration("TRADE_TTL", cfg.Monitor.TradeTTL); err != nil {
		return nil, err
	}

	cfg.Stream = exchange.DefaultStreamConfig(cfg.Scanner.Symbols)
	cfg.Stream.Testnet = cfg.Exchange.Testnet

	if addr := getEnv("REDIS_ADDR", ""); addr != "" {
		cfg.RedisEnabled = true
		cfg.Redis = cache.MirrorConfig{
			Addr:     addr,
			Password: getEnv("REDIS_PASSWORD", ""),
		}
		if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
			return nil, err
		}
	}

	if path := getEnv("STRATEGY_FILE", ""); path != "" {
		if err := loadStrategy(path, &cfg.Strategy); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// loadStrategy overlays the YAML strategy file onto the defaults already
// present in s.
func loadStrategy(path string, s *Strategy) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read strategy file: %w", err)
	}
	if err := yaml.Unmarshal(raw, s); err != nil {
		return fmt.Errorf("parse strategy file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", key, err)
	}
	return d, nil
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
