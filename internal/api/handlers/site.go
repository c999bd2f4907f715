package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hamzaz9912/eliedu/internal/courses"
	"go.uber.org/zap"
)

// HealthChecker reports storage reachability
type HealthChecker interface {
	Kind() string
	Ping(ctx context.Context) error
}

// SiteHandler serves the health check and the course catalog
type SiteHandler struct {
	health  HealthChecker
	catalog *courses.Catalog
	logger  *zap.Logger
}

// NewSiteHandler creates a new site handler
func NewSiteHandler(health HealthChecker, catalog *courses.Catalog, logger *zap.Logger) *SiteHandler {
	return &SiteHandler{
		health:  health,
		catalog: catalog,
		logger:  logger,
	}
}

// Health reports whether the storage backend answers
// @Router /api/health [get]
func (h *SiteHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		h.logger.Error("Storage health check failed", zap.String("storage", h.health.Kind()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"storage": h.health.Kind(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"storage": h.health.Kind(),
	})
}

// Courses lists the languages offered and their course codes
// @Router /api/courses [get]
func (h *SiteHandler) Courses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages": h.catalog.Languages(),
		"levels":    courses.Levels,
		"codes":     h.catalog.Codes(),
	})
}
