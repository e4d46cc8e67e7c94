package ports

import (
	"context"

	"newspulse/internal/domain"
)

// NewsRepository persists enriched news items.
type NewsRepository interface {
	// Create saves a new item and returns its assigned ID.
	Create(ctx context.Context, item *domain.NewsItem) (int64, error)
	// Update modifies an existing item by ID. Returns ErrNotFound (wrapped)
	// when no row matches.
	Update(ctx context.Context, item *domain.NewsItem) error
	// FindByID retrieves one item. Returns ErrNotFound (wrapped) on miss.
	FindByID(ctx context.Context, id int64) (*domain.NewsItem, error)
	// Find lists items matching the filter, newest first.
	Find(ctx context.Context, filter domain.NewsFilter) ([]*domain.NewsItem, error)
}
