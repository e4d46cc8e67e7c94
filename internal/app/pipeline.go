package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"newspulse/internal/domain"
	"newspulse/internal/hotness"
	"newspulse/internal/ports"
)

const defaultSimilarityThreshold = 0.85

// Config holds the collaborators of the ingestion service.
type Config struct {
	Repo    ports.NewsRepository
	Vectors ports.VectorStore
	Model   ports.TextModel
	Scorer  *hotness.Scorer
	Logger  ports.Logger
	// SimilarityThreshold is the minimum cosine similarity at which an
	// incoming item is considered a duplicate candidate. Defaults to 0.85.
	SimilarityThreshold float64
	// Now supplies wall-clock time. Defaults to time.Now; tests override it.
	Now func() time.Time
}

// NewsService runs the enrichment pipeline: normalize, tag, classify,
// deduplicate, score, persist. Each stage that talks to an external model
// degrades gracefully so one upstream hiccup never drops a news item.
type NewsService struct {
	repo      ports.NewsRepository
	vectors   ports.VectorStore
	model     ports.TextModel
	scorer    *hotness.Scorer
	logger    ports.Logger
	threshold float64
	now       func() time.Time
}

// NewNewsService creates the ingestion service.
func NewNewsService(cfg Config) (*NewsService, error) {
	if cfg.Repo == nil || cfg.Vectors == nil || cfg.Model == nil || cfg.Scorer == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("repository, vector store, text model, scorer and logger are all required")
	}
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = defaultSimilarityThreshold
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &NewsService{
		repo:      cfg.Repo,
		vectors:   cfg.Vectors,
		model:     cfg.Model,
		scorer:    cfg.Scorer,
		logger:    cfg.Logger,
		threshold: threshold,
		now:       now,
	}, nil
}

// Ingest runs one raw news item through the full pipeline and returns the
// stored (created or merged) item. Persistence failures are fatal; model and
// market-data failures degrade the item instead.
func (s *NewsService) Ingest(ctx context.Context, raw domain.RawNews) (*domain.NewsItem, error) {
	text := raw.Title
	if raw.Text != "" {
		text = raw.Title + "\n\n" + raw.Text
	}

	normalized, err := s.model.NormalizeStyle(ctx, text)
	if err != nil {
		if isFatal(err) {
			return nil, err
		}
		s.logger.Warn(ctx, "Style normalization degraded, keeping original text", map[string]interface{}{"cause": err.Error()})
		normalized = text
	}

	tags, err := s.model.ExtractTags(ctx, normalized)
	if err != nil {
		if isFatal(err) {
			return nil, err
		}
		s.logger.Warn(ctx, "Tag extraction degraded", map[string]interface{}{"cause": err.Error()})
		tags = nil
	}

	impact, err := s.model.ClassifyImpact(ctx, normalized)
	if err != nil {
		if isFatal(err) {
			return nil, err
		}
		s.logger.Warn(ctx, "Impact classification degraded", map[string]interface{}{"cause": err.Error()})
		impact = ports.MarketImpact{Level: "unknown"}
	}
	if len(tags) == 0 {
		tags = impact.AffectedSectors
	}

	if existing, merged, err := s.tryMerge(ctx, raw, normalized); err != nil {
		return nil, err
	} else if merged {
		return existing, nil
	}

	item := &domain.NewsItem{
		Title:     raw.Title,
		Content:   normalized,
		Tags:      tags,
		Sources:   []domain.Source{{URL: raw.Source, AddedAt: s.now()}},
		CreatedAt: raw.PublishedAt,
		UpdatedAt: s.now(),
	}

	s.score(ctx, item, raw.PublishedAt)

	if _, err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to store news item: %w", err)
	}
	if err := s.vectors.IndexNews(ctx, item.ID, item.Content); err != nil {
		// The item is stored; losing its embedding only weakens future
		// deduplication.
		s.logger.Warn(ctx, "Failed to index news embedding", map[string]interface{}{
			"newsID": item.ID, "cause": err.Error(),
		})
	}

	s.logger.Info(ctx, "News item ingested", map[string]interface{}{
		"newsID":  item.ID,
		"tags":    item.Tags,
		"impact":  impact.Level,
		"hotness": item.Metrics.HotnessScore,
	})
	return item, nil
}

// tryMerge looks for an already-stored report of the same event. On a
// confirmed match it merges the texts, appends the new source and marks the
// item confirmed. Search and comparison failures degrade to "no duplicate".
func (s *NewsService) tryMerge(ctx context.Context, raw domain.RawNews, normalized string) (*domain.NewsItem, bool, error) {
	hits, err := s.vectors.Search(ctx, normalized, 1)
	if err != nil {
		if isFatal(err) {
			return nil, false, err
		}
		s.logger.Warn(ctx, "Similarity search degraded, skipping deduplication", map[string]interface{}{"cause": err.Error()})
		return nil, false, nil
	}
	if len(hits) == 0 || hits[0].Score < s.threshold {
		return nil, false, nil
	}

	existing, err := s.repo.FindByID(ctx, hits[0].NewsID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			s.logger.Warn(ctx, "Similarity hit points at a missing item", map[string]interface{}{"newsID": hits[0].NewsID})
			return nil, false, nil
		}
		return nil, false, err
	}

	same, err := s.model.IsSameEvent(ctx, existing.Content, normalized)
	if err != nil {
		if isFatal(err) {
			return nil, false, err
		}
		s.logger.Warn(ctx, "Same-event check degraded, treating as new item", map[string]interface{}{"cause": err.Error()})
		return nil, false, nil
	}
	if !same {
		return nil, false, nil
	}

	merged, err := s.model.MergeSummary(ctx, existing.Content, normalized)
	if err != nil {
		if isFatal(err) {
			return nil, false, err
		}
		s.logger.Warn(ctx, "Summary merge degraded, keeping existing text", map[string]interface{}{"cause": err.Error()})
		merged = existing.Content
	}

	existing.Content = merged
	existing.Sources = append(existing.Sources, domain.Source{URL: raw.Source, AddedAt: s.now()})
	existing.IsConfirmed = true
	existing.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, false, fmt.Errorf("failed to update merged news item %d: %w", existing.ID, err)
	}
	if err := s.vectors.IndexNews(ctx, existing.ID, existing.Content); err != nil {
		s.logger.Warn(ctx, "Failed to re-index merged news embedding", map[string]interface{}{
			"newsID": existing.ID, "cause": err.Error(),
		})
	}

	s.logger.Info(ctx, "News item merged with existing event", map[string]interface{}{
		"newsID":     existing.ID,
		"similarity": hits[0].Score,
		"sources":    len(existing.Sources),
	})
	return existing, true, nil
}

// score fills in market metrics, leaving them zero when the scorer abstains.
func (s *NewsService) score(ctx context.Context, item *domain.NewsItem, publishedAt time.Time) {
	metrics, err := s.scorer.Calculate(ctx, item.PrimaryTag(), publishedAt)
	if err != nil {
		if errors.Is(err, ports.ErrInsufficientData) {
			s.logger.Debug(ctx, "Hotness scoring abstained", map[string]interface{}{
				"tag": item.PrimaryTag(), "cause": err.Error(),
			})
		} else {
			s.logger.Warn(ctx, "Hotness scoring failed", map[string]interface{}{"cause": err.Error()})
		}
		return
	}
	item.Metrics = *metrics
}

// ProcessPeriod pulls every feed for [from, to) and ingests what it finds.
// One bad feed or one bad item never stops the rest of the batch.
func (s *NewsService) ProcessPeriod(ctx context.Context, feeds []ports.NewsFeed, from, to time.Time) error {
	var ingested, failed int
	for _, feed := range feeds {
		items, err := feed.Fetch(ctx, from, to)
		if err != nil {
			if isFatal(err) {
				return err
			}
			s.logger.Error(ctx, err, "Feed fetch failed", map[string]interface{}{"feed": feed.Name()})
			continue
		}
		for _, raw := range items {
			if raw.Source == "" {
				raw.Source = feed.Name()
			}
			if _, err := s.Ingest(ctx, raw); err != nil {
				if isFatal(err) {
					return err
				}
				s.logger.Error(ctx, err, "Failed to ingest news item", map[string]interface{}{
					"feed": feed.Name(), "title": raw.Title,
				})
				failed++
				continue
			}
			ingested++
		}
	}
	s.logger.Info(ctx, "Processing period finished", map[string]interface{}{
		"from": from, "to": to, "ingested": ingested, "failed": failed,
	})
	return nil
}

// Get returns one stored news item.
func (s *NewsService) Get(ctx context.Context, id int64) (*domain.NewsItem, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns stored news items matching the filter, newest first.
func (s *NewsService) List(ctx context.Context, filter domain.NewsFilter) ([]*domain.NewsItem, error) {
	return s.repo.Find(ctx, filter)
}

// isFatal reports whether an error must abort the pipeline instead of
// degrading the current stage.
func isFatal(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
