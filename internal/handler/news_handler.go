package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"newspulse/internal/domain"
	"newspulse/internal/ports"
)

// NewsService is the slice of the application layer the HTTP surface needs.
type NewsService interface {
	Ingest(ctx context.Context, raw domain.RawNews) (*domain.NewsItem, error)
	ProcessPeriod(ctx context.Context, feeds []ports.NewsFeed, from, to time.Time) error
	Get(ctx context.Context, id int64) (*domain.NewsItem, error)
	List(ctx context.Context, filter domain.NewsFilter) ([]*domain.NewsItem, error)
}

// NewsHandler serves the news API.
type NewsHandler struct {
	service NewsService
	feeds   []ports.NewsFeed
	logger  ports.Logger
}

// NewNewsHandler creates the handler.
func NewNewsHandler(service NewsService, feeds []ports.NewsFeed, logger ports.Logger) *NewsHandler {
	return &NewsHandler{service: service, feeds: feeds, logger: logger}
}

// GetNews handles GET /news/:id.
func (h *NewsHandler) GetNews(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid news id"})
		return
	}

	item, err := h.service.Get(c.Request.Context(), id)
	if errors.Is(err, ports.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "News not found"})
		return
	}
	if err != nil {
		h.logger.Error(c.Request.Context(), err, "Failed to load news item", map[string]interface{}{"newsID": id})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, toNewsResponse(item))
}

// ListNews handles GET /news with optional limit, offset and tag query
// parameters.
func (h *NewsHandler) ListNews(c *gin.Context) {
	limit := getQueryLimit(c)
	offset := getQueryOffset(c)
	filter := domain.NewsFilter{
		Tag:    c.Query("tag"),
		Limit:  limit,
		Offset: offset,
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error(c.Request.Context(), err, "Failed to list news")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	news := make([]NewsResponse, 0, len(items))
	for _, item := range items {
		news = append(news, toNewsResponse(item))
	}
	c.JSON(http.StatusOK, ListResponse{News: news, Limit: limit, Offset: offset})
}

// SubmitNews handles POST /news: it pushes one submitted raw text through
// the full enrichment pipeline and returns the stored item.
func (h *NewsHandler) SubmitNews(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	item, err := h.service.Ingest(c.Request.Context(), domain.RawNews{
		Title:       req.Title,
		Text:        req.Text,
		Source:      req.Source,
		PublishedAt: req.PublishedAt,
	})
	if err != nil {
		h.logger.Error(c.Request.Context(), err, "Failed to ingest submitted news")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process news"})
		return
	}

	c.JSON(http.StatusCreated, toNewsResponse(item))
}

// ParseNews handles POST /news/parse: it pulls the configured feeds for the
// requested period and runs everything they return through the pipeline.
// The period defaults to the last 24 hours.
func (h *NewsHandler) ParseNews(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if len(h.feeds) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No news feeds configured"})
		return
	}

	to := req.To
	if to.IsZero() {
		to = time.Now()
	}
	from := req.From
	if from.IsZero() {
		from = to.Add(-24 * time.Hour)
	}
	if !from.Before(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must precede 'to'"})
		return
	}

	if err := h.service.ProcessPeriod(c.Request.Context(), h.feeds, from, to); err != nil {
		h.logger.Error(c.Request.Context(), err, "Failed to process period", map[string]interface{}{
			"from": from, "to": to,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process period"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "processed",
		"from":   from.Format(time.RFC3339),
		"to":     to.Format(time.RFC3339),
	})
}

// GetHealth handles GET /health.
func (h *NewsHandler) GetHealth(c *gin.Context) {
	if _, err := h.service.List(c.Request.Context(), domain.NewsFilter{Limit: 1}); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

func getQueryInt(c *gin.Context, name string, defaultValue int) int {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func getQueryLimit(c *gin.Context) int {
	const (
		defaultLimit = 20
		maxLimit     = 100
	)
	limit := getQueryInt(c, "limit", defaultLimit)
	if limit < 1 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func getQueryOffset(c *gin.Context) int {
	offset := getQueryInt(c, "offset", 0)
	if offset < 0 {
		return 0
	}
	return offset
}
