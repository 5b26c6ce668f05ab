package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytdt/api/handlers"
	"github.com/yourusername/ytdt/api/middleware"
	"github.com/yourusername/ytdt/internal/app"
	"github.com/yourusername/ytdt/pkg/logger"
)

// RouterConfig holds everything the history API serves
type RouterConfig struct {
	JobManager *app.JobManager
	LogsDir    string
	Version    string
	Logger     *zap.Logger
	Events     *logger.EventLog
}

// SetupRouter sets up the read-only job history API
func SetupRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(cfg.Logger, cfg.Events))
	router.Use(middleware.Recovery(cfg.Logger, cfg.Events))
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(cfg.JobManager, cfg.Version)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		jobHandler := handlers.NewJobHandler(cfg.JobManager, cfg.Logger)
		jobs := v1.Group("/jobs")
		{
			jobs.GET("", jobHandler.ListJobs)
			jobs.GET("/stats", jobHandler.GetStats)
			jobs.GET("/:id", jobHandler.GetJob)
			jobs.GET("/:id/log", jobHandler.GetJobLog)
		}

		logHandler := handlers.NewLogHandler(cfg.LogsDir)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
