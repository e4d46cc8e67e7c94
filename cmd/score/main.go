// Command score computes the hotness metrics for one hypothetical news
// event from the command line, without touching the news database:
//
//	score -sector "Нефть и газ" -published 2025-10-01T14:30:00+03:00
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-redis/redis/v8"

	"newspulse/config"
	"newspulse/internal/adapters/binanceclient"
	"newspulse/internal/adapters/logger"
	"newspulse/internal/adapters/marketcache"
	"newspulse/internal/adapters/moexiss"
	"newspulse/internal/hotness"
	"newspulse/internal/ports"
)

func main() {
	sector := flag.String("sector", "", "sector tag to score (e.g. \"Нефть и газ\")")
	published := flag.String("published", "", "publication time, RFC3339 (defaults to now)")
	flag.Parse()

	if *sector == "" {
		flag.Usage()
		os.Exit(2)
	}

	publishedAt := time.Now()
	if *published != "" {
		var err error
		publishedAt, err = time.Parse(time.RFC3339, *published)
		if err != nil {
			log.Fatalf("FATAL: invalid -published value %q: %v", *published, err)
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	market, err := newMarketClient(cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize market data client: %v", err)
	}

	scorer, err := hotness.New(hotness.Config{Market: market, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize hotness scorer: %v", err)
	}

	metrics, err := scorer.Calculate(ctx, *sector, publishedAt)
	if errors.Is(err, ports.ErrInsufficientData) {
		fmt.Fprintf(os.Stderr, "no score: %v\n", err)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("FATAL: scoring failed: %v", err)
	}

	out, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		log.Fatalf("FATAL: failed to encode metrics: %v", err)
	}
	fmt.Println(string(out))
}

func newMarketClient(cfg *config.Config, appLogger ports.Logger) (ports.MarketDataClient, error) {
	var (
		market ports.MarketDataClient
		err    error
	)
	switch cfg.MarketSource {
	case config.MarketSourceBinance:
		market, err = binanceclient.New(binanceclient.Config{
			APIKey:     cfg.BinanceAPIKey,
			SecretKey:  cfg.BinanceSecret,
			UseTestnet: cfg.BinanceTestnet,
			Logger:     appLogger,
		})
	default:
		market, err = moexiss.New(moexiss.Config{
			BaseURL: cfg.MOEXBaseURL,
			Logger:  appLogger,
		})
	}
	if err != nil {
		return nil, err
	}

	if cfg.RedisAddr == "" {
		return market, nil
	}
	return marketcache.New(marketcache.Config{
		Next:   market,
		Client: redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}),
		TTL:    cfg.CacheTTL,
		Logger: appLogger,
	})
}
