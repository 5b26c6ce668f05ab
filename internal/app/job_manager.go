package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ytdt/internal/domain"
	"github.com/yourusername/ytdt/pkg/logger"
)

// DefaultHistoryLimit is the number of jobs listed when no limit is given
const DefaultHistoryLimit = 20

// ErrNoJobLog is returned when a job has no transcode log block
var ErrNoJobLog = errors.New("no transcode log recorded for job")

// JobLog holds everything recorded for one job
type JobLog struct {
	Job     *domain.Job       `json:"job"`
	Events  []logger.LogEntry `json:"events"`
	Process string            `json:"process,omitempty"`
}

// JobManager answers history queries over recorded jobs
type JobManager struct {
	repo   domain.JobRepository
	reader *logger.LogReader
	events *logger.EventLog
}

// NewJobManager creates a new job manager. reader and events may be nil.
func NewJobManager(repo domain.JobRepository, reader *logger.LogReader, events *logger.EventLog) *JobManager {
	return &JobManager{
		repo:   repo,
		reader: reader,
		events: events,
	}
}

// ListJobs lists the newest jobs, optionally restricted to one stage
func (jm *JobManager) ListJobs(stage string, limit int) ([]*domain.Job, error) {
	filters := make(map[string]interface{})
	if stage != "" {
		s := domain.JobStage(strings.ToLower(stage))
		if !domain.ValidateStage(s) {
			return nil, fmt.Errorf("%w: unknown stage %q", domain.ErrInvalidInput, stage)
		}
		filters["stage"] = s
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return jm.repo.FindAll(filters, limit)
}

// GetJob finds a job by its ID or a unique prefix of it
func (jm *JobManager) GetJob(id string) (*domain.Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: job id is required", domain.ErrInvalidInput)
	}
	return jm.repo.FindByID(id)
}

// GetStats returns job statistics
func (jm *JobManager) GetStats() (*domain.JobStats, error) {
	return jm.repo.GetStats()
}

// GetJobLog collects the job events and the ffmpeg output of a job. Both
// the creation and completion days are searched since a job may cross
// midnight.
func (jm *JobManager) GetJobLog(id string) (*JobLog, error) {
	job, err := jm.GetJob(id)
	if err != nil {
		return nil, err
	}
	result := &JobLog{Job: job, Events: []logger.LogEntry{}}
	if jm.reader == nil {
		return result, nil
	}

	for _, day := range jobDays(job) {
		events, err := jm.reader.JobEvents(job.ID, day)
		if err != nil {
			return nil, fmt.Errorf("failed to read job events: %w", err)
		}
		result.Events = append(result.Events, events...)

		block, err := jm.reader.ReadProcessLog(job.ID, day)
		if err != nil {
			return nil, fmt.Errorf("failed to read transcode log: %w", err)
		}
		result.Process += block
	}
	return result, nil
}

// ProcessLog returns only the ffmpeg output block of a job
func (jm *JobManager) ProcessLog(id string) (string, error) {
	log, err := jm.GetJobLog(id)
	if err != nil {
		return "", err
	}
	if log.Process == "" {
		return "", fmt.Errorf("%w %s", ErrNoJobLog, log.Job.ShortID())
	}
	return log.Process, nil
}

// ReconcileInterrupted marks jobs that stopped in a running stage for
// longer than staleAfter as failed. A process killed mid-job never records
// its outcome.
func (jm *JobManager) ReconcileInterrupted(staleAfter time.Duration) (int, error) {
	cutoff := time.Now().Add(-staleAfter)
	reconciled := 0

	for _, stage := range []domain.JobStage{domain.StageResolving, domain.StageDownloading, domain.StageTranscoding} {
		jobs, err := jm.repo.FindAll(map[string]interface{}{"stage": stage}, 0)
		if err != nil {
			return reconciled, fmt.Errorf("failed to list %s jobs: %w", stage, err)
		}
		for _, job := range jobs {
			if job.UpdatedAt.After(cutoff) {
				continue
			}
			job.MarkFailed(&domain.StageError{
				Stage: stage,
				Err:   fmt.Errorf("%w: process exited before the job finished", domain.ErrStream),
			})
			if err := jm.repo.Update(job); err != nil {
				return reconciled, fmt.Errorf("failed to update job %s: %w", job.ShortID(), err)
			}
			reconciled++

			if jm.events != nil {
				jm.events.LogJobEvent("job_reconciled",
					zap.String("job_id", job.ID),
					zap.String("stage", string(stage)))
			}
		}
	}
	return reconciled, nil
}

func jobDays(job *domain.Job) []time.Time {
	start := job.CreatedAt
	if start.IsZero() {
		start = time.Now()
	}
	days := []time.Time{start}
	if job.CompletedAt != nil && job.CompletedAt.Format("20060102") != start.Format("20060102") {
		days = append(days, *job.CompletedAt)
	}
	return days
}
