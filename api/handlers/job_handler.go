package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/ytdt/internal/app"
	"github.com/yourusername/ytdt/internal/domain"
	"github.com/yourusername/ytdt/internal/infrastructure"
	"go.uber.org/zap"
)

// JobHandler serves the job history
type JobHandler struct {
	jobMgr *app.JobManager
	logger *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobMgr *app.JobManager, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		jobMgr: jobMgr,
		logger: logger,
	}
}

// ListJobs handles GET /api/v1/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(app.DefaultHistoryLimit)))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	if limit > 1000 {
		limit = 1000
	}

	jobs, err := h.jobMgr.ListJobs(c.Query("stage"), limit)
	if err != nil {
		h.writeError(c, "Failed to list jobs", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(jobs),
		"jobs":  jobs,
	})
}

// GetJob handles GET /api/v1/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.jobMgr.GetJob(c.Param("id"))
	if err != nil {
		h.writeError(c, "Failed to get job", err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// GetStats handles GET /api/v1/jobs/stats
func (h *JobHandler) GetStats(c *gin.Context) {
	stats, err := h.jobMgr.GetStats()
	if err != nil {
		h.writeError(c, "Failed to get stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetJobLog handles GET /api/v1/jobs/:id/log
func (h *JobHandler) GetJobLog(c *gin.Context) {
	log, err := h.jobMgr.GetJobLog(c.Param("id"))
	if err != nil {
		h.writeError(c, "Failed to read job log", err)
		return
	}

	if c.Query("format") == "text" {
		c.String(http.StatusOK, log.Process)
		return
	}
	c.JSON(http.StatusOK, log)
}

func (h *JobHandler) writeError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, infrastructure.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
	case errors.Is(err, infrastructure.ErrAmbiguousJobID):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(msg, zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
