package ports

import "context"

// SimilarNews is one ranked nearest-neighbor hit.
type SimilarNews struct {
	NewsID int64
	Score  float64 // cosine similarity, higher is closer
}

// VectorStore indexes news texts and finds the most similar stored items.
type VectorStore interface {
	// IndexNews stores (or replaces) the embedding for a news item.
	IndexNews(ctx context.Context, newsID int64, text string) error
	// Search returns up to topK stored items ranked by similarity to query.
	Search(ctx context.Context, query string, topK int) ([]SimilarNews, error)
}
