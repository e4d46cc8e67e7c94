package marketcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"newspulse/internal/domain"
	"newspulse/internal/ports"
)

// Cache is a read-through decorator around a ports.MarketDataClient.
// Candle fetches for the same (ticker, interval, count, from) tuple inside
// the TTL are served from redis. The scoring core never caches; this sits
// outside it, and any redis failure degrades to a pass-through fetch.
type Cache struct {
	next   ports.MarketDataClient
	client redis.Cmdable
	ttl    time.Duration
	logger ports.Logger
}

// Config holds configuration for the cache decorator.
type Config struct {
	Next   ports.MarketDataClient
	Client redis.Cmdable
	TTL    time.Duration
	Logger ports.Logger
}

// New creates a caching decorator.
func New(cfg Config) (*Cache, error) {
	if cfg.Next == nil || cfg.Client == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("next client, redis client and logger are required for the market-data cache")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{next: cfg.Next, client: cfg.Client, ttl: ttl, logger: cfg.Logger}, nil
}

func cacheKey(ticker string, interval ports.BarInterval, count int, from time.Time) string {
	return fmt.Sprintf("candles:%s:%s:%d:%d", ticker, interval, count, from.Unix())
}

// FetchCandles serves from redis when possible, otherwise delegates and
// stores the result. Only successful fetches are cached: Unavailable must
// stay retryable on the next call.
func (c *Cache) FetchCandles(ctx context.Context, ticker string, interval ports.BarInterval, count int, from time.Time) (domain.CandleSeries, error) {
	key := cacheKey(ticker, interval, count, from)

	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var candles []domain.Candle
		if jsonErr := json.Unmarshal([]byte(raw), &candles); jsonErr == nil {
			return domain.NewCandleSeries(candles), nil
		}
		// Corrupt entry: fall through to a fresh fetch and overwrite.
		c.logger.Warn(ctx, "Discarding corrupt cached candle entry", map[string]interface{}{"key": key})
	case err != redis.Nil:
		c.logger.Warn(ctx, "Candle cache read failed, fetching upstream", map[string]interface{}{"key": key, "cause": err.Error()})
	}

	series, err := c.next.FetchCandles(ctx, ticker, interval, count, from)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal([]domain.Candle(series)); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.Warn(ctx, "Candle cache write failed", map[string]interface{}{"key": key, "cause": setErr.Error()})
		}
	}
	return series, nil
}
