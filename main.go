package main

import (
	"context"
	"errors"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"newspulse/config"
	"newspulse/internal/adapters/binanceclient"
	"newspulse/internal/adapters/feeds"
	"newspulse/internal/adapters/llm"
	"newspulse/internal/adapters/logger"
	"newspulse/internal/adapters/marketcache"
	"newspulse/internal/adapters/moexiss"
	"newspulse/internal/adapters/pgvector"
	"newspulse/internal/adapters/sqlite"
	"newspulse/internal/app"
	"newspulse/internal/handler"
	"newspulse/internal/hotness"
	"newspulse/internal/ports"
	"newspulse/internal/scheduler"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	if err := cfg.RequireServer(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	feedsCfg, err := config.LoadFeeds(cfg.FeedsPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to load feeds configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := newLogger(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize news repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing news repository")
		}
	}()

	// 4. Initialize Market Data Client
	market, err := newMarketClient(cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize market data client: %v", err)
	}

	// 5. Initialize Hotness Scorer
	scorer, err := hotness.New(hotness.Config{Market: market, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize hotness scorer: %v", err)
	}

	// 6. Initialize Text Model and Embedder
	openaiClient, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize OpenAI client: %v", err)
	}
	var model ports.TextModel = openaiClient
	if cfg.LLMProvider == config.LLMProviderAnthropic {
		model, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey, appLogger)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize Anthropic client: %v", err)
		}
	}

	// 7. Initialize Vector Store
	vectors, err := pgvector.New(pgvector.Config{
		DSN:      cfg.PostgresDSN,
		Dim:      cfg.EmbeddingDim,
		Embedder: openaiClient,
		Logger:   appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize vector store: %v", err)
	}
	defer func() {
		if err := vectors.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing vector store")
		}
	}()

	// 8. Initialize Application Service
	service, err := app.NewNewsService(app.Config{
		Repo:                repo,
		Vectors:             vectors,
		Model:               model,
		Scorer:              scorer,
		Logger:              appLogger,
		SimilarityThreshold: cfg.SimilarityThreshold,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize news service: %v", err)
	}

	// 9. Initialize Feeds and Scheduler
	newsFeeds, err := newFeeds(cfg, feedsCfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize news feeds: %v", err)
	}
	if len(newsFeeds) > 0 {
		sched, err := scheduler.New(scheduler.Config{
			Service: service,
			Feeds:   newsFeeds,
			Logger:  appLogger,
			Spec:    feedsCfg.Schedule,
			Overlap: feedsCfg.Overlap(),
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize scheduler: %v", err)
		}
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("FATAL: Failed to start scheduler: %v", err)
		}
		defer sched.Stop(context.Background())
	} else {
		appLogger.Warn(ctx, "No news feeds configured, running API only")
	}

	// 10. Start the HTTP API
	router := handler.NewRouter(handler.NewNewsHandler(service, newsFeeds, appLogger), cfg.AllowedOrigins)
	server := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		appLogger.Info(ctx, "HTTP API listening", map[string]interface{}{"addr": cfg.HTTPAddr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error(ctx, err, "HTTP server exited with error")
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info(context.Background(), "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(context.Background(), err, "HTTP server shutdown failed")
	}
	appLogger.Info(context.Background(), "Application finished gracefully.")
}

func newLogger(cfg *config.Config) ports.Logger {
	if cfg.LogFormat == "json" {
		return logger.NewZerologLogger(cfg.LogLevel)
	}
	return logger.NewStdLogger(cfg.LogLevel)
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

func newFeeds(cfg *config.Config, feedsCfg *config.FeedsConfig, appLogger ports.Logger) ([]ports.NewsFeed, error) {
	var newsFeeds []ports.NewsFeed
	if cfg.FinnhubAPIKey != "" && feedsCfg.Enabled("finnhub") {
		feed, err := feeds.NewFinnhubFeed(cfg.FinnhubAPIKey, appLogger)
		if err != nil {
			return nil, err
		}
		newsFeeds = append(newsFeeds, feed)
	}
	return newsFeeds, nil
}
