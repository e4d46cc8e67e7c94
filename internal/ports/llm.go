package ports

import "context"

// MarketImpact is the model's classification of how a news text is likely
// to move the market.
type MarketImpact struct {
	Level           string   `json:"impact_level"` // low, medium, high or unknown
	AffectedSectors []string `json:"affected_sectors"`
}

// TextModel is the LLM-backed text pipeline: a black-box text-to-text /
// classification service. Failures of individual calls degrade the item
// being processed (keep the original text, empty tags, unknown impact);
// they never abort ingestion.
type TextModel interface {
	// NormalizeStyle rewrites a news text into a neutral editorial style.
	NormalizeStyle(ctx context.Context, text string) (string, error)
	// ExtractTags returns sector tags for the text, primary tag first.
	ExtractTags(ctx context.Context, text string) ([]string, error)
	// ClassifyImpact estimates the market impact of the text.
	ClassifyImpact(ctx context.Context, text string) (MarketImpact, error)
	// IsSameEvent reports whether two texts describe the same event.
	IsSameEvent(ctx context.Context, a, b string) (bool, error)
	// MergeSummary folds new information into an existing event summary.
	MergeSummary(ctx context.Context, existing, update string) (string, error)
}

// Embedder turns texts into fixed-dimension vectors for similarity search.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
