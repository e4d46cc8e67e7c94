package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"newspulse/internal/domain"
	"newspulse/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"
)

// binanceIntervals translates the logical bar interval into Binance's kline
// interval strings.
var binanceIntervals = map[ports.BarInterval]string{
	ports.Bar1m:  "1m",
	ports.Bar10m: "10m",
	ports.Bar15m: "15m",
	ports.Bar1h:  "1h",
	ports.Bar1d:  "1d",
}

// Client implements ports.MarketDataClient using the go-binance library.
// It serves candle series for crypto symbols, the market-reaction proxy
// when the deployment tracks crypto news instead of exchange indices.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a new Binance market-data adapter. Klines are a public
// endpoint, so empty keys are allowed.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using the global futures.UseTestnet.
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
	} else {
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance market-data client configured", map[string]interface{}{"baseURL": client.BaseURL})

	return &Client{futuresClient: client, logger: cfg.Logger}, nil
}

// FetchCandles returns up to count bars for a crypto symbol. The from hint
// is unused: Binance serves the most recent bars by default, which is what
// both scoring windows want.
func (c *Client) FetchCandles(ctx context.Context, ticker string, interval ports.BarInterval, count int, from time.Time) (domain.CandleSeries, error) {
	binanceInterval, ok := binanceIntervals[interval]
	if !ok {
		return nil, fmt.Errorf("unsupported bar interval %q: %w", interval, ports.ErrInvalidRequest)
	}

	klines, err := c.futuresClient.NewKlinesService().
		Symbol(ticker).
		Interval(binanceInterval).
		Limit(count).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, "FetchCandles")
	}
	if len(klines) == 0 {
		return nil, fmt.Errorf("binance returned no klines for %s: %w", ticker, ports.ErrUnavailable)
	}

	candles := make([]domain.Candle, 0, len(klines))
	dropped := 0
	for _, k := range klines {
		candle, err := translateKline(k)
		if err != nil {
			dropped++
			continue
		}
		candles = append(candles, candle)
	}
	if dropped > 0 {
		c.logger.Debug(ctx, "Dropped unparsable klines", map[string]interface{}{"ticker": ticker, "dropped": dropped})
	}

	series := domain.NewCandleSeries(candles)
	if len(series) == 0 {
		return nil, fmt.Errorf("binance klines for %s were all invalid: %w", ticker, ports.ErrUnavailable)
	}
	return series, nil
}

// translateKline converts one Binance kline into a domain candle. Prices
// arrive as strings; any non-numeric field disqualifies the row.
func translateKline(k *futures.Kline) (domain.Candle, error) {
	candle := domain.Candle{
		Begin: time.UnixMilli(k.OpenTime),
		End:   time.UnixMilli(k.CloseTime),
	}
	for _, field := range []struct {
		raw string
		dst *float64
	}{
		{k.Open, &candle.Open},
		{k.High, &candle.High},
		{k.Low, &candle.Low},
		{k.Close, &candle.Close},
		{k.Volume, &candle.Volume},
	} {
		v, err := strconv.ParseFloat(field.raw, 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("non-numeric kline field %q: %w", field.raw, err)
		}
		*field.dst = v
	}
	return candle, nil
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.futuresClient.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, err, "Ping")
	}
	return nil
}

// handleError translates common Binance API errors into standardized ports
// errors. Every upstream failure of a candle fetch degrades to
// ErrUnavailable so the scorer abstains instead of failing.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022: // Invalid signature
			mappedErr = ports.ErrAuthenticationFailed
		case -1121: // Invalid symbol
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrUnknown
		}
		c.logger.Warn(ctx, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnavailable, mappedErr)
	}

	var finalErr error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	default:
		if strings.Contains(err.Error(), "connection refused") ||
			strings.Contains(err.Error(), "no such host") ||
			strings.Contains(err.Error(), "use of closed network connection") {
			fields["transport"] = true
		}
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnavailable, err)
	}
	c.logger.Warn(ctx, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}
