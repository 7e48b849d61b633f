package api

import (
	"github.com/gin-gonic/gin"
)

// NewServer builds the status server. It is read-only observability for a
// running campaign; nothing here gates the pipeline.
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	return r
}
