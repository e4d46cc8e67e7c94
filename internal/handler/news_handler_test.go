package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newspulse/internal/domain"
	"newspulse/internal/ports"
)

type noopLogger struct{}

func (noopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (noopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type fakeService struct {
	item       *domain.NewsItem
	items      []*domain.NewsItem
	err        error
	lastFilter domain.NewsFilter
	lastRaw    domain.RawNews
	lastFrom   time.Time
	lastTo     time.Time
}

func (f *fakeService) Ingest(ctx context.Context, raw domain.RawNews) (*domain.NewsItem, error) {
	f.lastRaw = raw
	return f.item, f.err
}

func (f *fakeService) ProcessPeriod(ctx context.Context, feeds []ports.NewsFeed, from, to time.Time) error {
	f.lastFrom, f.lastTo = from, to
	return f.err
}

func (f *fakeService) Get(ctx context.Context, id int64) (*domain.NewsItem, error) {
	return f.item, f.err
}

func (f *fakeService) List(ctx context.Context, filter domain.NewsFilter) ([]*domain.NewsItem, error) {
	f.lastFilter = filter
	return f.items, f.err
}

type stubFeed struct{}

func (stubFeed) Name() string { return "stub" }
func (stubFeed) Fetch(ctx context.Context, from, to time.Time) ([]domain.RawNews, error) {
	return nil, nil
}

func newTestRouter(svc NewsService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewNewsHandler(svc, []ports.NewsFeed{stubFeed{}}, noopLogger{}), nil)
}

func sampleItem() *domain.NewsItem {
	at := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	return &domain.NewsItem{
		ID:        1,
		Title:     "Газпром увеличил добычу",
		Content:   "Компания сообщила о росте добычи газа.",
		Tags:      []string{"Нефть и газ"},
		Sources:   []domain.Source{{URL: "https://example.org/1", AddedAt: at}},
		CreatedAt: at,
		UpdatedAt: at,
		Metrics:   domain.MarketMetrics{HotnessScore: 0.42},
	}
}

func TestGetNews_Found(t *testing.T) {
	svc := &fakeService{item: sampleItem()}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/news/1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var res NewsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, int64(1), res.ID)
	assert.Equal(t, []string{"Нефть и газ"}, res.Tags)
	assert.InDelta(t, 0.42, res.Metrics.HotnessScore, 1e-9)
}

func TestGetNews_NotFound(t *testing.T) {
	svc := &fakeService{err: ports.ErrNotFound}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/news/999", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetNews_InvalidID(t *testing.T) {
	r := newTestRouter(&fakeService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/news/abc", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListNews_PassesFilter(t *testing.T) {
	svc := &fakeService{items: []*domain.NewsItem{sampleItem()}}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/news?limit=5&offset=10&tag=Финансы", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.NewsFilter{Tag: "Финансы", Limit: 5, Offset: 10}, svc.lastFilter)

	var res ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Len(t, res.News, 1)
	assert.Equal(t, 5, res.Limit)
	assert.Equal(t, 10, res.Offset)
}

func TestListNews_DefaultAndClampedLimit(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/news", nil))
	assert.Equal(t, 20, svc.lastFilter.Limit)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/news?limit=5000", nil))
	assert.Equal(t, 100, svc.lastFilter.Limit)
}

func TestListNews_DBError(t *testing.T) {
	svc := &fakeService{err: errors.New("db down")}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/news", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSubmitNews_Created(t *testing.T) {
	svc := &fakeService{item: sampleItem()}
	r := newTestRouter(svc)

	body, _ := json.Marshal(SubmitRequest{
		Title:       "Новость",
		Text:        "Текст новости",
		Source:      "https://example.org/n",
		PublishedAt: time.Date(2025, 10, 1, 10, 30, 0, 0, time.UTC),
	})
	req := httptest.NewRequest("POST", "/news", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Новость", svc.lastRaw.Title)
	assert.Equal(t, "https://example.org/n", svc.lastRaw.Source)
}

func TestSubmitNews_MissingTitle(t *testing.T) {
	r := newTestRouter(&fakeService{})

	req := httptest.NewRequest("POST", "/news", bytes.NewReader([]byte(`{"text":"no title"}`)))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseNews_ExplicitPeriod(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	from := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC)
	body, _ := json.Marshal(ParseRequest{From: from, To: to})
	req := httptest.NewRequest("POST", "/news/parse", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.lastFrom.Equal(from))
	assert.True(t, svc.lastTo.Equal(to))
}

func TestParseNews_DefaultsToLastDay(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	req := httptest.NewRequest("POST", "/news/parse", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 24*time.Hour, svc.lastTo.Sub(svc.lastFrom), float64(time.Minute))
}

func TestParseNews_InvertedPeriod(t *testing.T) {
	r := newTestRouter(&fakeService{})

	from := time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	body, _ := json.Marshal(ParseRequest{From: from, To: to})
	req := httptest.NewRequest("POST", "/news/parse", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseNews_NoFeedsConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(NewNewsHandler(&fakeService{}, nil, noopLogger{}), nil)

	req := httptest.NewRequest("POST", "/news/parse", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetHealth(t *testing.T) {
	r := newTestRouter(&fakeService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	r = newTestRouter(&fakeService{err: errors.New("db down")})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
