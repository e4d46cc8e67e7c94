package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"newspulse/internal/adapters/logger" // Import the logger package for LogLevel
)

// Market data source selection.
const (
	MarketSourceMOEX    = "moex"
	MarketSourceBinance = "binance"
)

// Text model provider selection.
const (
	LLMProviderOpenAI    = "openai"
	LLMProviderAnthropic = "anthropic"
)

// Config holds all application configuration.
type Config struct {
	// HTTP API
	HTTPAddr       string
	AllowedOrigins []string

	// Database
	DBPath      string // SQLite news storage
	PostgresDSN string // pgvector similarity store

	// Embeddings
	EmbeddingDim int

	// Text model
	LLMProvider     string
	OpenAIAPIKey    string // always required: embeddings run on OpenAI
	AnthropicAPIKey string

	// News feeds
	FinnhubAPIKey string
	FeedsPath     string // optional YAML with schedule and feed toggles

	// Market data
	MarketSource   string
	MOEXBaseURL    string
	BinanceAPIKey  string
	BinanceSecret  string
	BinanceTestnet bool

	// Candle cache
	RedisAddr     string // empty disables caching
	RedisPassword string
	CacheTTL      time.Duration

	// Deduplication
	SimilarityThreshold float64

	// Logging
	LogLevel  logger.LogLevel
	LogFormat string // "text" or "json"
}

// FeedsConfig is the optional YAML file controlling polling.
type FeedsConfig struct {
	// Schedule is a robfig/cron expression with seconds.
	Schedule string `yaml:"schedule"`
	// OverlapMinutes is re-fetched at every window start so boundary items
	// are never missed.
	OverlapMinutes int          `yaml:"overlap_minutes"`
	Feeds          []FeedToggle `yaml:"feeds"`
}

// FeedToggle enables or disables one named feed.
type FeedToggle struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}

// Overlap returns the configured overlap as a duration.
func (f *FeedsConfig) Overlap() time.Duration {
	return time.Duration(f.OverlapMinutes) * time.Minute
}

// Enabled reports whether the named feed is switched on. Feeds absent from
// the file are considered enabled.
func (f *FeedsConfig) Enabled(name string) bool {
	for _, feed := range f.Feeds {
		if feed.Name == name {
			return feed.Enabled
		}
	}
	return true
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	// HTTP API
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	if origins := getEnv("ALLOWED_ORIGINS", ""); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/newspulse.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}
	cfg.PostgresDSN = getEnv("POSTGRES_DSN", "")

	cfg.EmbeddingDim = getEnvAsInt("EMBEDDING_DIM", 1536)
	if cfg.EmbeddingDim <= 0 {
		errs = append(errs, "EMBEDDING_DIM must be positive")
	}

	// Text model
	cfg.LLMProvider = strings.ToLower(getEnv("LLM_PROVIDER", LLMProviderOpenAI))
	if cfg.LLMProvider != LLMProviderOpenAI && cfg.LLMProvider != LLMProviderAnthropic {
		errs = append(errs, fmt.Sprintf("LLM_PROVIDER must be %q or %q", LLMProviderOpenAI, LLMProviderAnthropic))
	}
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", "")
	cfg.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", "")

	// News feeds
	cfg.FinnhubAPIKey = getEnv("FINNHUB_API_KEY", "")
	cfg.FeedsPath = getEnv("FEEDS_CONFIG", "")

	// Market data
	cfg.MarketSource = strings.ToLower(getEnv("MARKET_SOURCE", MarketSourceMOEX))
	switch cfg.MarketSource {
	case MarketSourceMOEX:
		cfg.MOEXBaseURL = getEnv("MOEX_BASE_URL", "")
	case MarketSourceBinance:
		cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
		cfg.BinanceSecret = getEnv("BINANCE_API_SECRET", "")
		cfg.BinanceTestnet = getEnvAsBool("BINANCE_TESTNET", true)
		if cfg.BinanceAPIKey == "" || cfg.BinanceSecret == "" {
			errs = append(errs, "BINANCE_API_KEY and BINANCE_API_SECRET must be set when MARKET_SOURCE=binance")
		}
	default:
		errs = append(errs, fmt.Sprintf("MARKET_SOURCE must be %q or %q", MarketSourceMOEX, MarketSourceBinance))
	}

	// Candle cache
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cacheTTLMinutes := getEnvAsInt("CACHE_TTL_MINUTES", 15)
	if cacheTTLMinutes <= 0 {
		errs = append(errs, "CACHE_TTL_MINUTES must be positive")
	}
	cfg.CacheTTL = time.Duration(cacheTTLMinutes) * time.Minute

	// Deduplication
	cfg.SimilarityThreshold = getEnvAsFloat("SIMILARITY_THRESHOLD", 0.85)
	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1.0 {
		errs = append(errs, "SIMILARITY_THRESHOLD must be in (0.0, 1.0]")
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "text"))
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, `LOG_FORMAT must be "text" or "json"`)
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// RequireServer validates the settings only the full server needs: the
// enrichment pipeline cannot run without the vector store and the embedder.
// The score CLI skips this and works with market-data settings alone.
func (c *Config) RequireServer() error {
	var errs []string
	if c.PostgresDSN == "" {
		errs = append(errs, "POSTGRES_DSN must be set")
	}
	if c.OpenAIAPIKey == "" {
		errs = append(errs, "OPENAI_API_KEY must be set (embeddings require it)")
	}
	if c.LLMProvider == LLMProviderAnthropic && c.AnthropicAPIKey == "" {
		errs = append(errs, "ANTHROPIC_API_KEY must be set when LLM_PROVIDER=anthropic")
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadFeeds reads the polling configuration file. An empty path returns the
// defaults: poll every five minutes with a five-minute overlap, all feeds on.
func LoadFeeds(path string) (*FeedsConfig, error) {
	feeds := &FeedsConfig{
		Schedule:       "0 */5 * * * *",
		OverlapMinutes: 5,
	}
	if path == "" {
		return feeds, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds config '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, feeds); err != nil {
		return nil, fmt.Errorf("failed to parse feeds config '%s': %w", path, err)
	}
	if feeds.Schedule == "" {
		return nil, fmt.Errorf("feeds config '%s': schedule must be set", path)
	}
	if feeds.OverlapMinutes < 0 {
		return nil, fmt.Errorf("feeds config '%s': overlap_minutes cannot be negative", path)
	}
	return feeds, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
