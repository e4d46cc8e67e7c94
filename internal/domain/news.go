package domain

import "time"

// RawNews is what an ingestion feed produces: an untreated
// (text, timestamp, source) tuple before any enrichment.
type RawNews struct {
	Title       string
	Text        string
	Source      string // origin URL or channel identifier
	PublishedAt time.Time
}

// Source records one origin that reported (or confirmed) a news event.
type Source struct {
	URL     string    `json:"url"`
	AddedAt time.Time `json:"added_at"`
}

// NewsItem is an enriched, deduplicated news event.
type NewsItem struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Content     string        `json:"content"`
	Tags        []string      `json:"tags"`
	Sources     []Source      `json:"sources"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	IsConfirmed bool          `json:"is_confirmed"` // true once a second independent source reports the same event
	Metrics     MarketMetrics `json:"metrics"`
}

// PrimaryTag returns the first (primary) sector tag, or "" when untagged.
func (n *NewsItem) PrimaryTag() string {
	if len(n.Tags) == 0 {
		return ""
	}
	return n.Tags[0]
}

// NewsFilter narrows repository listings.
type NewsFilter struct {
	Tag    string
	Limit  int
	Offset int
}
