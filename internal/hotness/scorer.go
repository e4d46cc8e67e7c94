package hotness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"newspulse/internal/domain"
	"newspulse/internal/ports"
)

// Composite weights, fixed design constants summing to 1.0. Volume anomaly
// carries the highest weight as the fastest pre-price-move signal.
const (
	weightImmediate  = 0.30
	weightSustained  = 0.20
	weightVolume     = 0.35
	weightVolatility = 0.15
)

// Config holds the collaborators of a Scorer. Everything is injected; the
// scorer keeps no shared mutable state between calls.
type Config struct {
	Market   ports.MarketDataClient
	Resolver *SectorResolver
	Logger   ports.Logger
	// Now supplies wall-clock time for the immediate-term settle check.
	// Defaults to time.Now; tests override it.
	Now func() time.Time
}

// Scorer computes a bounded composite "hotness" score for a news event by
// correlating its publication time against sector index candles.
type Scorer struct {
	market   ports.MarketDataClient
	resolver *SectorResolver
	logger   ports.Logger
	now      func() time.Time
}

// New creates a Scorer.
func New(cfg Config) (*Scorer, error) {
	if cfg.Market == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("market data client and logger are required for the hotness scorer")
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = NewSectorResolver()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Scorer{market: cfg.Market, resolver: resolver, logger: cfg.Logger, now: now}, nil
}

// Calculate scores one news event from its primary sector tag and
// publication time. It abstains with ErrInsufficientData (wrapped) when the
// sector is unmapped or either candle window is insufficient; abstaining is
// a legitimate, retryable-later outcome and is logged below error severity.
// Candle series are owned by the call and discarded when it returns.
func (s *Scorer) Calculate(ctx context.Context, sectorTag string, publishedAt time.Time) (*domain.MarketMetrics, error) {
	ticker, ok := s.resolver.Resolve(sectorTag)
	if !ok {
		s.logger.Debug(ctx, "No index ticker for sector, skipping hotness", map[string]interface{}{"sector": sectorTag})
		return nil, fmt.Errorf("sector %q has no index ticker: %w", sectorTag, ports.ErrInsufficientData)
	}

	fetcher := windowFetcher{market: s.market}

	baseline, err := fetcher.baseline(ctx, ticker, publishedAt)
	if err != nil {
		return nil, s.abstain(ctx, ticker, "baseline window unavailable", err)
	}
	post, err := fetcher.postEvent(ctx, ticker, publishedAt)
	if err != nil {
		return nil, s.abstain(ctx, ticker, "post-event window unavailable", err)
	}

	immediate := immediateScore(baseline, post, publishedAt, s.now())
	sustained := sustainedScore(baseline, post)
	volume := volumeScore(baseline, post)
	volatility := volatilityScore(baseline, post)

	for name, sub := range map[string]subScore{
		"immediate_price_change": immediate,
		"sustained_price_change": sustained,
		"volume_anomaly":         volume,
		"volatility_spike":       volatility,
	} {
		if sub.Reason != ReasonNone {
			s.logger.Debug(ctx, "Hotness sub-score degraded", map[string]interface{}{
				"ticker": ticker, "term": name, "reason": string(sub.Reason),
			})
		}
	}

	metrics := &domain.MarketMetrics{
		ImmediatePriceChange: immediate.Value,
		SustainedPriceChange: sustained.Value,
		VolumeAnomaly:        volume.Value,
		VolatilitySpike:      volatility.Value,
	}
	metrics.HotnessScore = weightImmediate*metrics.ImmediatePriceChange +
		weightSustained*metrics.SustainedPriceChange +
		weightVolume*metrics.VolumeAnomaly +
		weightVolatility*metrics.VolatilitySpike

	s.logger.Info(ctx, "Hotness computed", map[string]interface{}{
		"sector":     sectorTag,
		"ticker":     ticker,
		"hotness":    metrics.HotnessScore,
		"immediate":  metrics.ImmediatePriceChange,
		"sustained":  metrics.SustainedPriceChange,
		"volume":     metrics.VolumeAnomaly,
		"volatility": metrics.VolatilitySpike,
	})
	return metrics, nil
}

// abstain normalizes window failures into the abstain signal. Upstream
// unavailability surfaces the same way as a short window: "no data now".
// Context cancellation and other unexpected errors pass through unchanged.
func (s *Scorer) abstain(ctx context.Context, ticker, msg string, err error) error {
	s.logger.Warn(ctx, msg, map[string]interface{}{"ticker": ticker, "cause": err.Error()})
	if errors.Is(err, ports.ErrInsufficientData) {
		return err
	}
	if errors.Is(err, ports.ErrUnavailable) {
		return fmt.Errorf("%s: %w: %w", msg, ports.ErrInsufficientData, err)
	}
	return err
}
