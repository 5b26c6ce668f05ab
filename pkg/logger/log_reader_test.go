package logger

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEventLog_JobEvents(t *testing.T) {
	dir := t.TempDir()

	events, err := NewEventLog(EventLogConfig{Level: "warn", LogsDir: dir})
	require.NoError(t, err)

	events.LogJobEvent("job_started", zap.String("job_id", "job-1"), zap.String("input", "https://youtu.be/dQw4w9WgXcQ"))
	events.LogJobEvent("job_started", zap.String("job_id", "job-2"))
	events.LogJobEvent("job_done", zap.String("job_id", "job-1"), zap.String("output", "/tmp/a.mp3"))
	events.LogAppError("history unavailable", zap.String("job_id", "job-1"))
	require.NoError(t, events.Close())

	reader := NewLogReader(dir)

	got, err := reader.JobEvents("job-1", time.Now())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "job_started", got[0].Message)
	assert.Equal(t, "info", got[0].Level)
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", got[0].Fields["input"])
	assert.Equal(t, "job_done", got[1].Message)
	assert.NotEmpty(t, got[1].Timestamp)

	errs, err := reader.ReadLogs(CategoryError, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "history unavailable", errs[0].Message)
}

func TestLogReader_ReadLogsLimitAndSearch(t *testing.T) {
	dir := t.TempDir()
	events, err := NewEventLog(EventLogConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	for _, id := range []string{"job-alpha", "job-bravo", "job-charlie", "job-delta"} {
		events.LogJobEvent("stage_changed", zap.String("job_id", id))
	}
	require.NoError(t, events.Close())

	reader := NewLogReader(dir)

	last, err := reader.ReadLogs(CategoryJobs, time.Now(), 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "job-charlie", last[0].Fields["job_id"])
	assert.Equal(t, "job-delta", last[1].Fields["job_id"])

	found, err := reader.SearchLogs(CategoryJobs, time.Now(), "delta", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "job-delta", found[0].Fields["job_id"])
}

func TestLogReader_MissingFile(t *testing.T) {
	reader := NewLogReader(t.TempDir())

	entries, err := reader.ReadLogs(CategoryJobs, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	block, err := reader.ReadProcessLog("nope", time.Now())
	require.NoError(t, err)
	assert.Empty(t, block)
}

func TestLogReader_ReadLogsNonJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(CategoryLogPath(dir, CategoryJobs, time.Now()), []byte("plain line\n"), 0644))

	entries, err := NewLogReader(dir).ReadLogs(CategoryJobs, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "plain line", entries[0].Message)
}

func TestReadProcessLog_SelectsJobBlock(t *testing.T) {
	dir := t.TempDir()

	f, err := OpenProcessLog(dir)
	require.NoError(t, err)
	WriteProcessHeader(f, "job-1", "ffmpeg -i in.mp4 out.mp3")
	f.WriteString("size=1kB time=00:00:01\n")
	WriteProcessFooter(f, true, "Converted: out.mp3")
	WriteProcessHeader(f, "job-2", "ffmpeg -i other.mp4 other.mov")
	f.WriteString("Invalid data found when processing input\n")
	WriteProcessFooter(f, false, "exit status 1")
	require.NoError(t, f.Close())

	block, err := NewLogReader(dir).ReadProcessLog("job-2", time.Now())
	require.NoError(t, err)

	assert.Contains(t, block, "Job: job-2")
	assert.Contains(t, block, "$ ffmpeg -i other.mp4 other.mov")
	assert.Contains(t, block, "Invalid data found")
	assert.Contains(t, block, "FAILED: exit status 1")
	assert.Contains(t, block, "=== END ===")
	assert.NotContains(t, block, "job-1")
	assert.NotContains(t, block, "out.mp3")
}
