package app

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/ytdt/internal/domain"
	"github.com/yourusername/ytdt/pkg/logger"
	"go.uber.org/zap"
)

func seedJob(t *testing.T, repo *mockJobRepo, id string, stage domain.JobStage, age time.Duration) *domain.Job {
	t.Helper()
	job := domain.NewJob(domain.VideoRequest{Input: "https://youtu.be/dQw4w9WgXcQ", Format: "mp3", OutputDir: "/tmp"})
	job.ID = id
	job.Stage = stage
	job.CreatedAt = time.Now().Add(-age)
	job.UpdatedAt = job.CreatedAt
	require.NoError(t, repo.Create(job))
	return job
}

func TestJobManager_ListJobs(t *testing.T) {
	repo := newMockJobRepo()
	seedJob(t, repo, "a1", domain.StageDone, 3*time.Hour)
	seedJob(t, repo, "b2", domain.StageFailed, 2*time.Hour)
	seedJob(t, repo, "c3", domain.StageDone, time.Hour)
	jm := NewJobManager(repo, nil, nil)

	jobs, err := jm.ListJobs("", 0)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "c3", jobs[0].ID, "newest first")

	jobs, err = jm.ListJobs("DONE", 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "c3", jobs[0].ID)

	_, err = jm.ListJobs("paused", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestJobManager_GetJob(t *testing.T) {
	repo := newMockJobRepo()
	seedJob(t, repo, "a1", domain.StageDone, time.Hour)
	jm := NewJobManager(repo, nil, nil)

	job, err := jm.GetJob(" a1 ")
	require.NoError(t, err)
	assert.Equal(t, "a1", job.ID)

	_, err = jm.GetJob("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestJobManager_GetStats(t *testing.T) {
	repo := newMockJobRepo()
	done := seedJob(t, repo, "a1", domain.StageDone, time.Hour)
	done.BytesDownloaded = 2048
	require.NoError(t, repo.Update(done))
	seedJob(t, repo, "b2", domain.StageFailed, time.Hour)

	stats, err := NewJobManager(repo, nil, nil).GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Done)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(2048), stats.BytesTotal)
}

func TestJobManager_GetJobLog(t *testing.T) {
	dir := t.TempDir()
	repo := newMockJobRepo()
	job := seedJob(t, repo, "job-with-log", domain.StageDone, 0)
	seedJob(t, repo, "job-without-log", domain.StageFailed, 0)

	events, err := logger.NewEventLog(logger.EventLogConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)
	events.LogJobEvent("job_started", zap.String("job_id", job.ID))
	events.LogJobEvent("job_done", zap.String("job_id", job.ID))
	require.NoError(t, events.Close())

	f, err := logger.OpenProcessLog(dir)
	require.NoError(t, err)
	logger.WriteProcessHeader(f, job.ID, "ffmpeg -i a-temp.mp3 a.mp3")
	f.WriteString("size=     512kB time=00:00:10.00\n")
	logger.WriteProcessFooter(f, true, "Converted: a.mp3")
	require.NoError(t, f.Close())

	jm := NewJobManager(repo, logger.NewLogReader(dir), nil)

	log, err := jm.GetJobLog(job.ID)
	require.NoError(t, err)
	require.Len(t, log.Events, 2)
	assert.Equal(t, "job_done", log.Events[1].Message)
	assert.Contains(t, log.Process, "$ ffmpeg -i a-temp.mp3 a.mp3")
	assert.Contains(t, log.Process, "SUCCESS: Converted: a.mp3")

	process, err := jm.ProcessLog(job.ID)
	require.NoError(t, err)
	assert.Equal(t, log.Process, process)

	_, err = jm.ProcessLog("job-without-log")
	assert.ErrorIs(t, err, ErrNoJobLog)
}

func TestJobManager_ReconcileInterrupted(t *testing.T) {
	dir := t.TempDir()
	events, err := logger.NewEventLog(logger.EventLogConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)
	defer events.Close()

	repo := newMockJobRepo()
	seedJob(t, repo, "stale-download", domain.StageDownloading, 2*time.Hour)
	seedJob(t, repo, "stale-transcode", domain.StageTranscoding, 2*time.Hour)
	seedJob(t, repo, "running", domain.StageDownloading, time.Minute)
	seedJob(t, repo, "finished", domain.StageDone, 2*time.Hour)

	jm := NewJobManager(repo, nil, events)
	n, err := jm.ReconcileInterrupted(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stale, err := repo.FindByID("stale-transcode")
	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, stale.Stage)
	assert.Equal(t, domain.StageTranscoding, stale.FailedStage)
	assert.Equal(t, domain.KindStream, stale.ErrorKind)

	running, err := repo.FindByID("running")
	require.NoError(t, err)
	assert.Equal(t, domain.StageDownloading, running.Stage)

	finished, err := repo.FindByID("finished")
	require.NoError(t, err)
	assert.Equal(t, domain.StageDone, finished.Stage)

	require.NoError(t, events.Sync())
	data, err := os.ReadFile(logger.CategoryLogPath(dir, logger.CategoryJobs, time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "job_reconciled")
}
