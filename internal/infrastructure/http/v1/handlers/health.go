// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sfgnexus/internal/core/basenumber"
	"sfgnexus/internal/infrastructure/storage"
)

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	store   basenumber.SequenceStore
	driver  string
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(store basenumber.SequenceStore, driver, version string) *HealthHandler {
	return &HealthHandler{store: store, driver: driver, version: version}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"store": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"store": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	body := gin.H{
		"app":     "sfgnexus",
		"version": h.version,
		"store":   h.driver,
	}
	if reporter, ok := h.store.(storage.StatsReporter); ok {
		body["storeStats"] = reporter.Stats()
	}
	c.JSON(http.StatusOK, body)
}
