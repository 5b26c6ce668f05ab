package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/ytdt/internal/app"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	jobMgr  *app.JobManager
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(jobMgr *app.JobManager, version string) *HealthHandler {
	return &HealthHandler{
		jobMgr:  jobMgr,
		version: version,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	History struct {
		Available bool  `json:"available"`
		Jobs      int64 `json:"jobs"`
	} `json:"history"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: h.version,
	}
	if stats, err := h.jobMgr.GetStats(); err == nil {
		response.History.Available = true
		response.History.Jobs = stats.Total
	}

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if _, err := h.jobMgr.GetStats(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "job history unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
