package handler

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter assembles the gin engine with CORS and the news routes.
func NewRouter(h *NewsHandler, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: allowedOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type"},
		}))
	}

	r.GET("/news", h.ListNews)
	r.GET("/news/:id", h.GetNews)
	r.POST("/news", h.SubmitNews)
	r.POST("/news/parse", h.ParseNews)
	r.GET("/health", h.GetHealth)

	return r
}
