package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newspulse/internal/domain"
	"newspulse/internal/hotness"
	"newspulse/internal/ports"
)

// --- Mocks ---

type mockLogger struct{}

func (mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// mockMarket keeps the scorer abstaining so pipeline tests stay focused on
// the pipeline itself.
type mockMarket struct{}

func (mockMarket) FetchCandles(ctx context.Context, ticker string, interval ports.BarInterval, count int, from time.Time) (domain.CandleSeries, error) {
	return nil, ports.ErrUnavailable
}

type mockModel struct {
	normalizeErr error
	tags         []string
	tagsErr      error
	impact       ports.MarketImpact
	impactErr    error
	sameEvent    bool
	sameEventErr error
	merged       string
	mergeErr     error
}

func (m *mockModel) NormalizeStyle(ctx context.Context, text string) (string, error) {
	if m.normalizeErr != nil {
		return "", m.normalizeErr
	}
	return "normalized: " + text, nil
}

func (m *mockModel) ExtractTags(ctx context.Context, text string) ([]string, error) {
	return m.tags, m.tagsErr
}

func (m *mockModel) ClassifyImpact(ctx context.Context, text string) (ports.MarketImpact, error) {
	return m.impact, m.impactErr
}

func (m *mockModel) IsSameEvent(ctx context.Context, a, b string) (bool, error) {
	return m.sameEvent, m.sameEventErr
}

func (m *mockModel) MergeSummary(ctx context.Context, existing, update string) (string, error) {
	if m.mergeErr != nil {
		return "", m.mergeErr
	}
	return m.merged, nil
}

type mockVectors struct {
	hits      []ports.SimilarNews
	searchErr error
	indexed   map[int64]string
	indexErr  error
}

func newMockVectors() *mockVectors {
	return &mockVectors{indexed: make(map[int64]string)}
}

func (v *mockVectors) IndexNews(ctx context.Context, newsID int64, text string) error {
	if v.indexErr != nil {
		return v.indexErr
	}
	v.indexed[newsID] = text
	return nil
}

func (v *mockVectors) Search(ctx context.Context, query string, topK int) ([]ports.SimilarNews, error) {
	return v.hits, v.searchErr
}

type mockRepo struct {
	items     map[int64]*domain.NewsItem
	nextID    int64
	createErr error
	updates   int
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[int64]*domain.NewsItem), nextID: 1}
}

func (r *mockRepo) Create(ctx context.Context, item *domain.NewsItem) (int64, error) {
	if r.createErr != nil {
		return 0, r.createErr
	}
	item.ID = r.nextID
	r.nextID++
	copied := *item
	r.items[item.ID] = &copied
	return item.ID, nil
}

func (r *mockRepo) Update(ctx context.Context, item *domain.NewsItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return ports.ErrNotFound
	}
	copied := *item
	r.items[item.ID] = &copied
	r.updates++
	return nil
}

func (r *mockRepo) FindByID(ctx context.Context, id int64) (*domain.NewsItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (r *mockRepo) Find(ctx context.Context, filter domain.NewsFilter) ([]*domain.NewsItem, error) {
	var out []*domain.NewsItem
	for _, item := range r.items {
		copied := *item
		out = append(out, &copied)
	}
	return out, nil
}

type mockFeed struct {
	name     string
	items    []domain.RawNews
	fetchErr error
}

func (f *mockFeed) Name() string { return f.name }
func (f *mockFeed) Fetch(ctx context.Context, from, to time.Time) ([]domain.RawNews, error) {
	return f.items, f.fetchErr
}

// --- Helpers ---

func newTestService(t *testing.T, model *mockModel, vectors *mockVectors, repo *mockRepo) *NewsService {
	t.Helper()
	scorer, err := hotness.New(hotness.Config{Market: mockMarket{}, Logger: mockLogger{}})
	require.NoError(t, err)

	svc, err := NewNewsService(Config{
		Repo:    repo,
		Vectors: vectors,
		Model:   model,
		Scorer:  scorer,
		Logger:  mockLogger{},
		Now:     func() time.Time { return time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return svc
}

func sampleRaw() domain.RawNews {
	return domain.RawNews{
		Title:       "Газпром увеличил добычу",
		Text:        "Компания сообщила о росте добычи газа.",
		Source:      "https://example.org/gazprom",
		PublishedAt: time.Date(2025, 10, 1, 10, 30, 0, 0, time.UTC),
	}
}

// --- Tests ---

func TestIngest_CreatesNewItem(t *testing.T) {
	model := &mockModel{
		tags:   []string{"Нефть и газ"},
		impact: ports.MarketImpact{Level: "high", AffectedSectors: []string{"Нефть и газ"}},
	}
	vectors := newMockVectors()
	repo := newMockRepo()
	svc := newTestService(t, model, vectors, repo)

	raw := sampleRaw()
	item, err := svc.Ingest(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, int64(1), item.ID)
	assert.Equal(t, raw.Title, item.Title)
	assert.Contains(t, item.Content, "normalized:")
	assert.Equal(t, []string{"Нефть и газ"}, item.Tags)
	require.Len(t, item.Sources, 1)
	assert.Equal(t, raw.Source, item.Sources[0].URL)
	assert.Equal(t, raw.PublishedAt, item.CreatedAt)
	assert.False(t, item.IsConfirmed)
	assert.Zero(t, item.Metrics.HotnessScore, "scorer abstained, metrics stay zero")
	assert.Equal(t, item.Content, vectors.indexed[item.ID])
}

func TestIngest_DegradesWhenModelUnavailable(t *testing.T) {
	model := &mockModel{
		normalizeErr: ports.ErrUnavailable,
		tagsErr:      ports.ErrUnavailable,
		impactErr:    ports.ErrUnavailable,
	}
	vectors := newMockVectors()
	repo := newMockRepo()
	svc := newTestService(t, model, vectors, repo)

	raw := sampleRaw()
	item, err := svc.Ingest(context.Background(), raw)
	require.NoError(t, err, "model failures degrade, they do not abort ingestion")

	assert.Contains(t, item.Content, raw.Title, "original text kept")
	assert.Empty(t, item.Tags)
}

func TestIngest_FallsBackToImpactSectors(t *testing.T) {
	model := &mockModel{
		tagsErr: ports.ErrUnavailable,
		impact:  ports.MarketImpact{Level: "medium", AffectedSectors: []string{"Финансы"}},
	}
	svc := newTestService(t, model, newMockVectors(), newMockRepo())

	item, err := svc.Ingest(context.Background(), sampleRaw())
	require.NoError(t, err)
	assert.Equal(t, []string{"Финансы"}, item.Tags)
}

func TestIngest_MergesDuplicate(t *testing.T) {
	model := &mockModel{
		tags:      []string{"Нефть и газ"},
		sameEvent: true,
		merged:    "merged summary",
	}
	vectors := newMockVectors()
	repo := newMockRepo()
	svc := newTestService(t, model, vectors, repo)

	first, err := svc.Ingest(context.Background(), sampleRaw())
	require.NoError(t, err)

	vectors.hits = []ports.SimilarNews{{NewsID: first.ID, Score: 0.93}}
	second := sampleRaw()
	second.Source = "https://other.example.org/same-story"

	merged, err := svc.Ingest(context.Background(), second)
	require.NoError(t, err)

	assert.Equal(t, first.ID, merged.ID, "no new item created")
	assert.True(t, merged.IsConfirmed)
	assert.Equal(t, "merged summary", merged.Content)
	require.Len(t, merged.Sources, 2)
	assert.Equal(t, second.Source, merged.Sources[1].URL)
	assert.Equal(t, 1, repo.updates)
	assert.Equal(t, "merged summary", vectors.indexed[first.ID], "embedding re-indexed after merge")
}

func TestIngest_BelowThresholdCreatesNew(t *testing.T) {
	model := &mockModel{sameEvent: true, merged: "should not be used"}
	vectors := newMockVectors()
	repo := newMockRepo()
	svc := newTestService(t, model, vectors, repo)

	first, err := svc.Ingest(context.Background(), sampleRaw())
	require.NoError(t, err)

	vectors.hits = []ports.SimilarNews{{NewsID: first.ID, Score: 0.5}}
	second, err := svc.Ingest(context.Background(), sampleRaw())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 0, repo.updates)
}

func TestIngest_DifferentEventCreatesNew(t *testing.T) {
	model := &mockModel{sameEvent: false}
	vectors := newMockVectors()
	repo := newMockRepo()
	svc := newTestService(t, model, vectors, repo)

	first, err := svc.Ingest(context.Background(), sampleRaw())
	require.NoError(t, err)

	// High similarity but the model says the events differ.
	vectors.hits = []ports.SimilarNews{{NewsID: first.ID, Score: 0.95}}
	second, err := svc.Ingest(context.Background(), sampleRaw())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestIngest_SearchFailureSkipsDeduplication(t *testing.T) {
	model := &mockModel{sameEvent: true}
	vectors := newMockVectors()
	vectors.searchErr = ports.ErrUnavailable
	repo := newMockRepo()
	svc := newTestService(t, model, vectors, repo)

	item, err := svc.Ingest(context.Background(), sampleRaw())
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
}

func TestIngest_CreateFailureIsFatal(t *testing.T) {
	repo := newMockRepo()
	repo.createErr = errors.New("disk full")
	svc := newTestService(t, &mockModel{}, newMockVectors(), repo)

	_, err := svc.Ingest(context.Background(), sampleRaw())
	assert.ErrorContains(t, err, "disk full")
}

func TestIngest_IndexFailureIsNotFatal(t *testing.T) {
	vectors := newMockVectors()
	vectors.indexErr = ports.ErrUnavailable
	svc := newTestService(t, &mockModel{}, vectors, newMockRepo())

	item, err := svc.Ingest(context.Background(), sampleRaw())
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
}

func TestProcessPeriod_ContinuesPastFailures(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, &mockModel{}, newMockVectors(), repo)

	broken := &mockFeed{name: "broken", fetchErr: ports.ErrUnavailable}
	working := &mockFeed{name: "working", items: []domain.RawNews{
		sampleRaw(),
		{Title: "ЦБ сохранил ставку", PublishedAt: time.Date(2025, 10, 1, 11, 0, 0, 0, time.UTC)},
	}}

	from := time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC)
	err := svc.ProcessPeriod(context.Background(), []ports.NewsFeed{broken, working}, from, from.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, repo.items, 2, "items from the working feed still land")
}

func TestProcessPeriod_FeedNameBecomesSource(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, &mockModel{}, newMockVectors(), repo)

	feed := &mockFeed{name: "telegram", items: []domain.RawNews{
		{Title: "Новость без ссылки", PublishedAt: time.Now().UTC()},
	}}
	require.NoError(t, svc.ProcessPeriod(context.Background(), []ports.NewsFeed{feed}, time.Time{}, time.Now()))

	require.Len(t, repo.items, 1)
	for _, item := range repo.items {
		require.Len(t, item.Sources, 1)
		assert.Equal(t, "telegram", item.Sources[0].URL)
	}
}

func TestIngest_ContextCancellationAborts(t *testing.T) {
	model := &mockModel{normalizeErr: fmt.Errorf("rpc: %w", context.Canceled)}
	svc := newTestService(t, model, newMockVectors(), newMockRepo())

	_, err := svc.Ingest(context.Background(), sampleRaw())
	assert.ErrorIs(t, err, context.Canceled)
}
