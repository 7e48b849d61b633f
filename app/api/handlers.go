package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/newslab-kr/navercrawl/app/aggregate"
	"github.com/newslab-kr/navercrawl/app/cfg"
	"github.com/newslab-kr/navercrawl/app/ratelimit"
	"github.com/newslab-kr/navercrawl/app/scrape"
)

type Handler struct {
	governor  *ratelimit.Governor
	agg       *aggregate.Aggregator
	walker    *scrape.Walker
	startedAt time.Time
}

func NewHandler(governor *ratelimit.Governor, agg *aggregate.Aggregator, walker *scrape.Walker) *Handler {
	return &Handler{
		governor:  governor,
		agg:       agg,
		walker:    walker,
		startedAt: time.Now(),
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":   cfg.Get().Version,
		"uptime":    time.Since(h.startedAt).String(),
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	governorStats := h.governor.Stats()

	c.JSON(http.StatusOK, gin.H{
		"progress": h.walker.Progress(),
		"records":  h.agg.Stats(),
		"requests": gin.H{
			"total":          governorStats.TotalRequests,
			"total_wait":     governorStats.TotalWait.String(),
			"avg_wait":       governorStats.AverageWait.String(),
			"current_window": governorStats.WindowRequests,
		},
	})
}
