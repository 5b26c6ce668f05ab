package main

import (
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/yourusername/ytdt/internal/app"
	"github.com/yourusername/ytdt/internal/domain"
	"github.com/yourusername/ytdt/internal/infrastructure"
	"github.com/yourusername/ytdt/pkg/logger"
)

// services holds the components every command shares
type services struct {
	config *domain.Config
	log    *zap.Logger
	events *logger.EventLog
	repo   *infrastructure.SQLiteJobRepository // nil when history is disabled
}

// loadServices loads the configuration and opens logs and history
func loadServices() (*services, error) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	level := config.Logging.Level
	if verbose {
		level = "debug"
	}
	base, err := logger.New(logger.Config{
		Level:      level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	s := &services{config: config, log: base}

	if config.Logging.LogsDir != "" {
		events, err := logger.NewEventLog(logger.EventLogConfig{
			Level:   level,
			LogsDir: config.Logging.LogsDir,
		})
		if err != nil {
			base.Warn("Event log unavailable", zap.Error(err))
		} else {
			s.events = events
			s.log = logger.Tee(base, events)
		}
	}

	if config.History.Enabled {
		repo, err := infrastructure.NewSQLiteJobRepository(config.History.DatabasePath)
		if err != nil {
			s.log.Warn("Job history unavailable",
				zap.String("path", config.History.DatabasePath),
				zap.Error(err))
		} else {
			s.repo = repo
		}
	}

	return s, nil
}

// Close flushes logs and closes the history database
func (s *services) Close() {
	if s.repo != nil {
		s.repo.Close()
	}
	if s.events != nil {
		s.events.Close()
	}
	s.log.Sync()
}

// jobRepository returns the history repository or a nil interface
func (s *services) jobRepository() domain.JobRepository {
	if s.repo == nil {
		return nil
	}
	return s.repo
}

// requireHistory fails when history is disabled or could not be opened
func (s *services) requireHistory() error {
	if s.repo == nil {
		return fmt.Errorf("job history is disabled or unavailable (history.database_path: %s)", s.config.History.DatabasePath)
	}
	return nil
}

func (s *services) jobManager() *app.JobManager {
	return app.NewJobManager(s.repo, logger.NewLogReader(s.config.Logging.LogsDir), s.events)
}

func (s *services) httpClient() *http.Client {
	return &http.Client{Timeout: s.config.Download.HTTPTimeout}
}

func (s *services) innertube() *infrastructure.InnertubeClient {
	return infrastructure.NewInnertubeClient(s.httpClient(), s.config.YouTube, s.log)
}

func (s *services) transcoder() *infrastructure.FFmpegTranscoder {
	return infrastructure.NewFFmpegTranscoder(s.config.FFmpeg, s.config.Logging.LogsDir, s.log)
}

// pipeline wires the resolver, fetchers and engines into a pipeline
func (s *services) pipeline(transcoder domain.Transcoder, sendNotifications bool) *app.Pipeline {
	innertube := s.innertube()

	if sendNotifications {
		s.config.Notification.Enabled = true
	}
	var notifier domain.Notifier
	if s.config.Notification.Enabled {
		notifier = infrastructure.NewNotificationService(&s.config.Notification, s.log)
	}

	return app.NewPipeline(
		infrastructure.NewYouTubeResolver(infrastructure.NewYouTubeClient(s.config.Download.HTTPTimeout), innertube, s.log),
		infrastructure.NewCaptionFetcher(innertube, s.httpClient(), s.config.YouTube.UserAgent, s.log),
		infrastructure.NewStreamDownloader(s.config.Download.BufferSize, s.log),
		transcoder,
		s.jobRepository(),
		notifier,
		s.log,
	)
}

// mustLoadServices loads services or exits
func mustLoadServices() *services {
	s, err := loadServices()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
	return s
}
