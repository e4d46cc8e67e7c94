package handler

import (
	"time"

	"newspulse/internal/domain"
)

type MetricsResponse struct {
	ImmediatePriceChange float64 `json:"immediate_price_change"`
	SustainedPriceChange float64 `json:"sustained_price_change"`
	VolumeAnomaly        float64 `json:"volume_anomaly"`
	VolatilitySpike      float64 `json:"volatility_spike"`
	HotnessScore         float64 `json:"hotness_score"`
}

type SourceResponse struct {
	URL     string `json:"url"`
	AddedAt string `json:"added_at"`
}

type NewsResponse struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	Tags        []string         `json:"tags"`
	Sources     []SourceResponse `json:"sources"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
	IsConfirmed bool             `json:"is_confirmed"`
	Metrics     MetricsResponse  `json:"metrics"`
}

type ListResponse struct {
	News   []NewsResponse `json:"news"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// SubmitRequest submits one raw news text for ingestion.
type SubmitRequest struct {
	Title       string    `json:"title" binding:"required"`
	Text        string    `json:"text"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at" binding:"required"`
}

// ParseRequest asks the server to pull the configured feeds for a period.
// Zero values default to the last 24 hours.
type ParseRequest struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func toNewsResponse(item *domain.NewsItem) NewsResponse {
	sources := make([]SourceResponse, 0, len(item.Sources))
	for _, s := range item.Sources {
		sources = append(sources, SourceResponse{
			URL:     s.URL,
			AddedAt: s.AddedAt.Format(time.RFC3339),
		})
	}
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	return NewsResponse{
		ID:          item.ID,
		Title:       item.Title,
		Content:     item.Content,
		Tags:        tags,
		Sources:     sources,
		CreatedAt:   item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   item.UpdatedAt.Format(time.RFC3339),
		IsConfirmed: item.IsConfirmed,
		Metrics: MetricsResponse{
			ImmediatePriceChange: item.Metrics.ImmediatePriceChange,
			SustainedPriceChange: item.Metrics.SustainedPriceChange,
			VolumeAnomaly:        item.Metrics.VolumeAnomaly,
			VolatilitySpike:      item.Metrics.VolatilitySpike,
			HotnessScore:         item.Metrics.HotnessScore,
		},
	}
}
