package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategoryJobs  LogCategory = "jobs"  // Job lifecycle events (JSON)
	CategoryError LogCategory = "error" // Application errors (JSON)
)

// Categories lists every category written by EventLog
var Categories = []LogCategory{CategoryJobs, CategoryError}

// EventLog writes categorized JSON events to dated files, one file per
// category and day. ffmpeg's raw output is written by the transcoder itself.
type EventLog struct {
	loggers map[LogCategory]*zap.Logger
	files   []*os.File
	config  EventLogConfig
	mu      sync.RWMutex
}

// EventLogConfig contains configuration for the event log
type EventLogConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string // Directory for log files
}

// NewEventLog creates the event log, creating the directory if needed
func NewEventLog(config EventLogConfig) (*EventLog, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}

	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	el := &EventLog{
		loggers: make(map[LogCategory]*zap.Logger),
		config:  config,
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	// Job events are always recorded, whatever the console verbosity
	if level > zapcore.InfoLevel {
		level = zapcore.InfoLevel
	}

	jobsLogger, err := el.createStructuredLogger(CategoryJobs, level)
	if err != nil {
		el.Close()
		return nil, fmt.Errorf("failed to create jobs logger: %w", err)
	}
	el.loggers[CategoryJobs] = jobsLogger

	errorLogger, err := el.createStructuredLogger(CategoryError, zapcore.ErrorLevel)
	if err != nil {
		el.Close()
		return nil, fmt.Errorf("failed to create error logger: %w", err)
	}
	el.loggers[CategoryError] = errorLogger

	return el, nil
}

// createStructuredLogger creates a JSON-formatted logger for a category
func (el *EventLog) createStructuredLogger(category LogCategory, level zapcore.Level) (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "msg"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = ""

	encoder := zapcore.NewJSONEncoder(encoderConfig)

	file, err := os.OpenFile(CategoryLogPath(el.config.LogsDir, category, time.Now()), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	el.files = append(el.files, file)

	core := zapcore.NewCore(encoder, zapcore.AddSync(file), level)
	return zap.New(core), nil
}

// CategoryLogPath returns the dated log file path of a category
func CategoryLogPath(logsDir string, category LogCategory, date time.Time) string {
	filename := fmt.Sprintf("%s-%s.log", category, date.Format("20060102"))
	return filepath.Join(logsDir, filename)
}

// LogsDir returns the logs directory path
func (el *EventLog) LogsDir() string {
	return el.config.LogsDir
}

// Logger returns the structured logger for a category
func (el *EventLog) Logger(category LogCategory) *zap.Logger {
	el.mu.RLock()
	defer el.mu.RUnlock()

	if logger, ok := el.loggers[category]; ok {
		return logger
	}
	return el.loggers[CategoryError]
}

// Jobs returns the job event logger
func (el *EventLog) Jobs() *zap.Logger {
	return el.Logger(CategoryJobs)
}

// Error returns the error logger
func (el *EventLog) Error() *zap.Logger {
	return el.Logger(CategoryError)
}

// LogJobEvent records a job lifecycle event
func (el *EventLog) LogJobEvent(event string, fields ...zap.Field) {
	el.Jobs().Info(event, fields...)
}

// LogAppError records an application-level error
func (el *EventLog) LogAppError(msg string, fields ...zap.Field) {
	el.Error().Error(msg, fields...)
}

// Sync flushes all loggers
func (el *EventLog) Sync() error {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var lastErr error
	for _, logger := range el.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes all loggers and closes their files
func (el *EventLog) Close() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	var lastErr error
	for _, logger := range el.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
	}
	for _, f := range el.files {
		if err := f.Close(); err != nil {
			lastErr = err
		}
	}
	el.files = nil
	return lastErr
}
