package ports

import (
	"context"
	"time"

	"newspulse/internal/domain"
)

// NewsFeed produces raw (text, timestamp, source) tuples from one upstream
// source: a news wire, an aggregator API, a messaging channel.
type NewsFeed interface {
	// Name identifies the feed in logs and stored sources.
	Name() string
	// Fetch returns the raw items published inside [from, to].
	Fetch(ctx context.Context, from, to time.Time) ([]domain.RawNews, error)
}
