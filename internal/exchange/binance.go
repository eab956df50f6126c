// Package exchange implements the market-data and futures-data
// collaborator ports on Binance USD-M futures. All REST calls run through
// a shared circuit breaker so a failing exchange degrades to fast
// rejections instead of piling up timeouts.
package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"github.com/iniduniaku/signaltradingbot/internal/metrics"
	"github.com/iniduniaku/signaltradingbot/internal/model"
)

// Config holds exchange client settings.
type Config struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Testnet   bool   `yaml:"testnet"`

	BreakerMaxFailures  int           `yaml:"breaker_max_failures"`
	BreakerResetTimeout time.Duration `yaml:"breaker_reset_timeout"`

	// LongShortPeriod is the aggregation window for the account
	// long/short ratio used as the liquidation-skew reading.
	LongShortPeriod string `yaml:"long_short_period"`
}

// DefaultConfig returns the standard client settings. Market data
// endpoints need no API credentials.
func DefaultConfig() Config {
	return Config{
		BreakerMaxFailures:  5,
		BreakerResetTimeout: 30 * time.Second,
		LongShortPeriod:     "5m",
	}
}

// Client implements model.MarketData and model.FuturesData.
type Client struct {
	cfg     Config
	futures *futures.Client
	breaker *Breaker
	met     *metrics.Metrics
	log     *slog.Logger
}

// New creates a Client. met may be nil.
func New(cfg Config, met *metrics.Metrics, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Testnet {
		futures.UseTestnet = true
	}
	fc := futures.NewClient(cfg.APIKey, cfg.APISecret)

	breaker := NewBreaker(cfg.BreakerMaxFailures, cfg.BreakerResetTimeout)
	breaker.OnStateChange = func(from, to BreakerState) {
		log.Warn("exchange breaker transition", "from", from.String(), "to", to.String())
		if met != nil {
			met.BreakerState.Set(float64(to))
			if to == BreakerOpen {
				met.BreakerTrips.Inc()
			}
		}
	}

	return &Client{cfg: cfg, futures: fc, breaker: breaker, met: met, log: log}
}

// BreakerState exposes the current circuit state for health reporting.
func (c *Client) BreakerState() BreakerState {
	return c.breaker.State()
}

// Candles returns up to limit klines for symbol, ascending by open time.
func (c *Client) Candles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	var klines []*futures.Kline
	err := c.call("klines", func() error {
		var err error
		klines, err = c.futures.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, interval, err)
	}

	candles := make([]model.Candle, 0, len(klines))
	for _, k := range klines {
		var p parser
		candle := model.Candle{
			Timestamp: time.UnixMilli(k.OpenTime).UTC(),
			Open:      p.float(k.Open),
			High:      p.float(k.High),
			Low:       p.float(k.Low),
			Close:     p.float(k.Close),
			Volume:    p.float(k.Volume),
		}
		if p.err != nil {
			return nil, fmt.Errorf("decode kline for %s: %w", symbol, p.err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// Ticker returns the 24h price snapshot for symbol.
func (c *Client) Ticker(ctx context.Context, symbol string) (model.Ticker, error) {
	var stats []*futures.PriceChangeStats
	err := c.call("ticker", func() error {
		var err error
		stats, err = c.futures.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
		return err
	})
	if err != nil {
		return model.Ticker{}, fmt.Errorf("fetch ticker %s: %w", symbol, err)
	}
	if len(stats) == 0 {
		return model.Ticker{}, fmt.Errorf("no ticker data for %s", symbol)
	}

	var p parser
	ticker := model.Ticker{
		Last:        p.float(stats[0].LastPrice),
		QuoteVolume: p.float(stats[0].QuoteVolume),
		Percentage:  p.float(stats[0].PriceChangePercent),
	}
	if p.err != nil {
		return model.Ticker{}, fmt.Errorf("decode ticker for %s: %w", symbol, p.err)
	}
	return ticker, nil
}

// Price returns the latest traded price for symbol.
func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	var prices []*futures.SymbolPrice
	err := c.call("price", func() error {
		var err error
		prices, err = c.futures.NewListPricesService().Symbol(symbol).Do(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("fetch price %s: %w", symbol, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("no price data for %s", symbol)
	}

	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("decode price for %s: %w", symbol, err)
	}
	return price, nil
}

// Snapshot assembles the futures-context snapshot: funding rate and mark
// price from the premium index, plus open interest and the account
// long/short skew. Only the premium index is required; the secondary
// readings fail soft and leave their fields zeroed.
func (c *Client) Snapshot(ctx context.Context, symbol string) (model.FuturesSnapshot, error) {
	var premium []*futures.PremiumIndex
	err := c.call("premium_index", func() error {
		var err error
		premium, err = c.futures.NewPremiumIndexService().Symbol(symbol).Do(ctx)
		return err
	})
	if err != nil {
		return model.FuturesSnapshot{}, fmt.Errorf("fetch premium index %s: %w", symbol, err)
	}
	if len(premium) == 0 {
		return model.FuturesSnapshot{}, fmt.Errorf("no premium index data for %s", symbol)
	}

	var p parser
	snap := model.FuturesSnapshot{
		FundingRate: p.float(premium[0].LastFundingRate),
		MarkPrice:   p.float(premium[0].MarkPrice),
		FetchedAt:   time.Now().UTC(),
	}
	if p.err != nil {
		return model.FuturesSnapshot{}, fmt.Errorf("decode premium index for %s: %w", symbol, p.err)
	}

	var oi *futures.OpenInterest
	err = c.call("open_interest", func() error {
		var err error
		oi, err = c.futures.NewGetOpenInterestService().Symbol(symbol).Do(ctx)
		return err
	})
	if err != nil {
		c.log.Debug("open interest unavailable", "symbol", symbol, "error", err)
	} else if v, perr := strconv.ParseFloat(oi.OpenInterest, 64); perr == nil {
		snap.OpenInterest = v
	}

	var ratios []*futures.LongShortRatio
	err = c.call("long_short_ratio", func() error {
		var err error
		ratios, err = c.futures.NewLongShortRatioService().
			Symbol(symbol).
			Period(c.cfg.LongShortPeriod).
			Limit(1).
			Do(ctx)
		return err
	})
	if err != nil {
		c.log.Debug("long/short ratio unavailable", "symbol", symbol, "error", err)
	} else if len(ratios) > 0 {
		if v, perr := strconv.ParseFloat(ratios[0].LongAccount, 64); perr == nil {
			snap.LiquidationRatio = v
		}
	}

	return snap, nil
}

// call runs fn through the breaker and records latency and failures.
func (c *Client) call(name string, fn func() error) error {
	start := time.Now()
	err := c.breaker.Execute(fn)
	if c.met != nil {
		c.met.ExchangeCallDur.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			c.met.ExchangeErrors.WithLabelValues(name).Inc()
		}
	}
	return err
}

// parser accumulates the first strconv error across a batch of fields.
type parser struct {
	err error
}

func (p *parser) float(s string) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = err
		return 0
	}
	return v
}
