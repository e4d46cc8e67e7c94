package ports

import (
	"context"
	"time"

	"newspulse/internal/domain"
)

// BarInterval is the logical candle interval requested from a market-data
// source. Each adapter translates it into the upstream API's own encoding.
type BarInterval string

const (
	Bar1m  BarInterval = "1min"
	Bar10m BarInterval = "10min"
	Bar15m BarInterval = "15min"
	Bar1h  BarInterval = "1h"
	Bar1d  BarInterval = "1d"
)

// MarketDataClient fetches OHLCV candle series for an index or symbol.
// Implementations make one network call per invocation and must return
// ErrUnavailable (wrapped) for any upstream failure: non-success status,
// malformed payload, empty candle list. Rows with missing or non-numeric
// fields are dropped from the result, never zero-filled.
type MarketDataClient interface {
	// FetchCandles returns up to count bars of the given interval.
	// A zero `from` lets the adapter choose its default lookback window.
	FetchCandles(ctx context.Context, ticker string, interval BarInterval, count int, from time.Time) (domain.CandleSeries, error)
}
