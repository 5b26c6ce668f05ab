package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/ytdt/pkg/logger"
)

func TestRecovery_RecordsPanicInErrorLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	events, err := logger.NewEventLog(logger.EventLogConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	router := gin.New()
	router.Use(Recovery(zap.NewNop(), events))
	router.GET("/boom", func(c *gin.Context) {
		panic("history store exploded")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
	require.NoError(t, events.Close())

	entries, err := logger.NewLogReader(dir).ReadLogs(logger.CategoryError, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "panic recovered", entries[0].Message)
	assert.Equal(t, "history store exploded", entries[0].Fields["panic"])
	assert.Equal(t, "/boom", entries[0].Fields["path"])
}

func TestRecovery_WithoutEventLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Recovery(zap.NewNop(), nil))
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
