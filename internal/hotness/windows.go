package hotness

import (
	"context"
	"fmt"
	"time"

	"newspulse/internal/domain"
	"newspulse/internal/ports"
)

const (
	// All hotness formulas assume 15-minute bars: 4 bars span one hour.
	scoringInterval = ports.Bar15m

	baselineFetchCount  = 50 // trailing bars defining "normal" conditions
	postEventFetchCount = 20 // ~5 hours of lookahead capacity
	minBaselineCandles  = 5

	// Upstream intraday data only reaches back a few days; the hint keeps
	// the query window tight without risking an empty baseline.
	fetchLookback = 7 * 24 * time.Hour
)

// windowFetcher extracts the baseline and post-event candle windows around a
// reference event time. Baseline and post-event are two separate queries,
// mirroring the upstream access pattern; nothing depends on their order.
type windowFetcher struct {
	market ports.MarketDataClient
}

// baseline returns the most recent candles with Begin < ref, capped at
// baselineFetchCount. Fewer than minBaselineCandles valid bars means the
// window is insufficient and the scorer abstains.
func (f windowFetcher) baseline(ctx context.Context, ticker string, ref time.Time) (domain.CandleSeries, error) {
	series, err := f.market.FetchCandles(ctx, ticker, scoringInterval, baselineFetchCount, ref.Add(-fetchLookback))
	if err != nil {
		return nil, err
	}
	window := series.Before(ref).Last(baselineFetchCount)
	if len(window) < minBaselineCandles {
		return nil, fmt.Errorf("baseline window for %s has %d candles: %w", ticker, len(window), ports.ErrInsufficientData)
	}
	return window, nil
}

// postEvent returns the candles with Begin >= ref. Zero rows is the expected
// state right after a fresh event (upstream data lag), reported as
// ErrInsufficientData so the caller retries later instead of failing.
func (f windowFetcher) postEvent(ctx context.Context, ticker string, ref time.Time) (domain.CandleSeries, error) {
	series, err := f.market.FetchCandles(ctx, ticker, scoringInterval, postEventFetchCount, ref.Add(-fetchLookback))
	if err != nil {
		return nil, err
	}
	window := series.From(ref)
	if len(window) == 0 {
		return nil, fmt.Errorf("no post-event candles for %s yet: %w", ticker, ports.ErrInsufficientData)
	}
	return window, nil
}
