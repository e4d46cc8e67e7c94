package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"newspulse/internal/domain"
	"newspulse/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.NewsRepository using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/newspulse.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// WAL mode for better concurrency between the API and the scheduler.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from a
	// single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "SQLite database ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
// NOTE: a proper migration tool is recommended for production.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS news (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		sources TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		is_confirmed INTEGER NOT NULL DEFAULT 0,
		immediate_price_change REAL NOT NULL DEFAULT 0,
		sustained_price_change REAL NOT NULL DEFAULT 0,
		volume_anomaly REAL NOT NULL DEFAULT 0,
		volatility_spike REAL NOT NULL DEFAULT 0,
		hotness_score REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_news_created_at ON news (created_at);
	CREATE INDEX IF NOT EXISTS idx_news_hotness ON news (hotness_score);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// Create saves a new news item and returns its assigned ID.
func (r *Repository) Create(ctx context.Context, item *domain.NewsItem) (int64, error) {
	tags, sources, err := marshalLists(item)
	if err != nil {
		return 0, err
	}

	const query = `
	INSERT INTO news (title, content, tags, sources, created_at, updated_at, is_confirmed,
	                  immediate_price_change, sustained_price_change, volume_anomaly, volatility_spike, hotness_score)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		item.Title, item.Content, tags, sources, item.CreatedAt, item.UpdatedAt, item.IsConfirmed,
		item.Metrics.ImmediatePriceChange, item.Metrics.SustainedPriceChange,
		item.Metrics.VolumeAnomaly, item.Metrics.VolatilitySpike, item.Metrics.HotnessScore)
	if err != nil {
		return 0, fmt.Errorf("failed to insert news item %q: %w", item.Title, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for %q: %w", item.Title, err)
	}
	item.ID = id
	r.logger.Debug(ctx, "News item created", map[string]interface{}{"newsID": id, "title": item.Title})
	return id, nil
}

// Update modifies an existing news item by ID.
func (r *Repository) Update(ctx context.Context, item *domain.NewsItem) error {
	tags, sources, err := marshalLists(item)
	if err != nil {
		return err
	}

	const query = `
	UPDATE news
	SET title = ?, content = ?, tags = ?, sources = ?, updated_at = ?, is_confirmed = ?,
	    immediate_price_change = ?, sustained_price_change = ?, volume_anomaly = ?,
	    volatility_spike = ?, hotness_score = ?
	WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		item.Title, item.Content, tags, sources, item.UpdatedAt, item.IsConfirmed,
		item.Metrics.ImmediatePriceChange, item.Metrics.SustainedPriceChange,
		item.Metrics.VolumeAnomaly, item.Metrics.VolatilitySpike, item.Metrics.HotnessScore,
		item.ID)
	if err != nil {
		return fmt.Errorf("failed to update news item ID %d: %w", item.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for news item ID %d: %w", item.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("news item ID %d not found for update: %w", item.ID, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "News item updated", map[string]interface{}{"newsID": item.ID})
	return nil
}

// FindByID retrieves one news item.
func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.NewsItem, error) {
	const query = selectColumns + ` FROM news WHERE id = ?`

	item, err := scanNewsItem(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("news item ID %d: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query news item ID %d: %w", id, err)
	}
	return item, nil
}

// Find lists news items matching the filter, newest first. Tag filtering
// matches items whose JSON tag list contains the tag as an element.
func (r *Repository) Find(ctx context.Context, filter domain.NewsFilter) ([]*domain.NewsItem, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := selectColumns + ` FROM news`
	args := []interface{}{}
	if filter.Tag != "" {
		// Tags are stored as a JSON array of strings.
		query += ` WHERE tags LIKE ?`
		args = append(args, `%"`+filter.Tag+`"%`)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query news items: %w", err)
	}
	defer rows.Close()

	var items []*domain.NewsItem
	for rows.Next() {
		item, err := scanNewsItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed while iterating news items: %w", err)
	}
	return items, nil
}

const selectColumns = `
	SELECT id, title, content, tags, sources, created_at, updated_at, is_confirmed,
	       immediate_price_change, sustained_price_change, volume_anomaly, volatility_spike, hotness_score`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNewsItem(row rowScanner) (*domain.NewsItem, error) {
	var (
		item    domain.NewsItem
		tags    string
		sources string
	)
	err := row.Scan(&item.ID, &item.Title, &item.Content, &tags, &sources,
		&item.CreatedAt, &item.UpdatedAt, &item.IsConfirmed,
		&item.Metrics.ImmediatePriceChange, &item.Metrics.SustainedPriceChange,
		&item.Metrics.VolumeAnomaly, &item.Metrics.VolatilitySpike, &item.Metrics.HotnessScore)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
		return nil, fmt.Errorf("corrupt tags for news item %d: %w", item.ID, err)
	}
	if err := json.Unmarshal([]byte(sources), &item.Sources); err != nil {
		return nil, fmt.Errorf("corrupt sources for news item %d: %w", item.ID, err)
	}
	return &item, nil
}

func marshalLists(item *domain.NewsItem) (tags string, sources string, err error) {
	tagList := item.Tags
	if tagList == nil {
		tagList = []string{}
	}
	sourceList := item.Sources
	if sourceList == nil {
		sourceList = []domain.Source{}
	}
	tagBytes, err := json.Marshal(tagList)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	sourceBytes, err := json.Marshal(sourceList)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal sources: %w", err)
	}
	return string(tagBytes), string(sourceBytes), nil
}
