package feeds

import (
	"context"
	"fmt"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"

	"newspulse/internal/domain"
	"newspulse/internal/ports"
)

// FinnhubFeed implements ports.NewsFeed on the Finnhub market news API.
// Finnhub has no server-side time filter for this endpoint, so the window
// is applied client-side after fetching the latest batch.
type FinnhubFeed struct {
	client   *finnhub.DefaultApiService
	category string
	logger   ports.Logger
}

// NewFinnhubFeed creates a Finnhub-backed news feed.
func NewFinnhubFeed(apiKey string, logger ports.Logger) (*FinnhubFeed, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("finnhub API key is required: %w", ports.ErrConfigurationError)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for Finnhub feed")
	}
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	return &FinnhubFeed{
		client:   finnhub.NewAPIClient(cfg).DefaultApi,
		category: "general",
		logger:   logger,
	}, nil
}

// Name identifies the feed in logs and stored sources.
func (f *FinnhubFeed) Name() string {
	return "finnhub"
}

// Fetch returns raw news published within [from, to).
func (f *FinnhubFeed) Fetch(ctx context.Context, from, to time.Time) ([]domain.RawNews, error) {
	res, _, err := f.client.MarketNews(ctx).Category(f.category).Execute()
	if err != nil {
		return nil, fmt.Errorf("finnhub market news request failed: %w: %v", ports.ErrUnavailable, err)
	}

	var items []domain.RawNews
	for _, news := range res {
		if news.Datetime == nil || news.Headline == nil {
			continue
		}
		publishedAt := time.Unix(*news.Datetime, 0).UTC()
		if publishedAt.Before(from) || !publishedAt.Before(to) {
			continue
		}

		item := domain.RawNews{
			Title:       *news.Headline,
			PublishedAt: publishedAt,
		}
		if news.Summary != nil {
			item.Text = *news.Summary
		}
		if news.Url != nil {
			item.Source = *news.Url
		}
		items = append(items, item)
	}

	f.logger.Debug(ctx, "Finnhub feed fetched", map[string]interface{}{
		"total":    len(res),
		"inWindow": len(items),
	})
	return items, nil
}
