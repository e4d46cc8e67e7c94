package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"newspulse/internal/ports"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Store implements ports.VectorStore on PostgreSQL with the pgvector
// extension: one embedding row per news item, cosine distance for ranking.
type Store struct {
	db       *sql.DB
	embedder ports.Embedder
	logger   ports.Logger
	dim      int
}

// Config holds configuration for the vector store.
type Config struct {
	DSN      string
	Dim      int // embedding dimensionality, must match the embedder's model
	Embedder ports.Embedder
	Logger   ports.Logger
}

// New connects to PostgreSQL and prepares the embeddings schema.
func New(cfg Config) (*Store, error) {
	if cfg.Embedder == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("embedder and logger are required for the vector store")
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required: %w", ports.ErrConfigurationError)
	}
	dim := cfg.Dim
	if dim <= 0 {
		dim = 1536
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w: %v", ports.ErrDBConnection, err)
	}

	store := &Store{db: db, embedder: cfg.Embedder, logger: cfg.Logger, dim: dim}
	if err := store.initializeSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize vector schema: %w", err)
	}
	cfg.Logger.Info(context.Background(), "Vector store ready", map[string]interface{}{"dim": dim})
	return store, nil
}

func (s *Store) initializeSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS news_embeddings (
			news_id BIGINT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			indexed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, s.dim),
		`CREATE INDEX IF NOT EXISTS idx_news_embeddings_cosine
			ON news_embeddings USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// IndexNews stores (or replaces) the embedding for a news item's text.
func (s *Store) IndexNews(ctx context.Context, newsID int64, text string) error {
	vec, err := s.embedOne(ctx, text)
	if err != nil {
		return err
	}

	const query = `
	INSERT INTO news_embeddings (news_id, embedding, indexed_at)
	VALUES ($1, $2::vector, NOW())
	ON CONFLICT (news_id) DO UPDATE SET embedding = EXCLUDED.embedding, indexed_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, newsID, vectorLiteral(vec)); err != nil {
		return fmt.Errorf("failed to index news %d: %w: %v", newsID, ports.ErrQueryFailed, err)
	}
	s.logger.Debug(ctx, "News embedding indexed", map[string]interface{}{"newsID": newsID})
	return nil
}

// Search returns up to topK stored items ranked by cosine similarity.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]ports.SimilarNews, error) {
	if topK <= 0 {
		topK = 5
	}
	vec, err := s.embedOne(ctx, query)
	if err != nil {
		return nil, err
	}

	// <=> is pgvector's cosine distance; similarity = 1 - distance.
	const sqlQuery = `
	SELECT news_id, 1 - (embedding <=> $1::vector) AS similarity
	FROM news_embeddings
	ORDER BY embedding <=> $1::vector
	LIMIT $2`

	rows, err := s.db.QueryContext(ctx, sqlQuery, vectorLiteral(vec), topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var hits []ports.SimilarNews
	for rows.Next() {
		var hit ports.SimilarNews
		if err := rows.Scan(&hit.NewsID, &hit.Score); err != nil {
			return nil, fmt.Errorf("failed to scan similarity hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed while iterating similarity hits: %w", err)
	}
	return hits, nil
}

func (s *Store) embedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) != s.dim {
		return nil, fmt.Errorf("embedder returned %d vectors (want 1 of dim %d): %w", len(vectors), s.dim, ports.ErrUnknown)
	}
	return vectors[0], nil
}

// vectorLiteral renders a pgvector input literal: [0.1,0.2,...].
func vectorLiteral(vec []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
