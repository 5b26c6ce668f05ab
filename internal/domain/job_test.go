package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob() *Job {
	return NewJob(VideoRequest{
		Input:        "https://youtu.be/dQw4w9WgXcQ",
		OutputDir:    "/tmp/out",
		Format:       "mp3",
		SubtitleLang: "en",
	})
}

func TestNewJob(t *testing.T) {
	job := newTestJob()

	assert.NotEmpty(t, job.ID)
	assert.Len(t, job.ShortID(), 8)
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", job.Input)
	assert.Equal(t, "mp3", job.Format)
	assert.Equal(t, "en", job.SubtitleLang)
	assert.Equal(t, StageResolving, job.Stage)
	assert.NotNil(t, job.StartedAt)
	assert.False(t, job.IsTerminal())
}

func TestJob_StageTransitions(t *testing.T) {
	job := newTestJob()

	job.MarkResolved(&ResolvedVideo{ID: "dQw4w9WgXcQ", Title: "Never_Gonna_Give_You_Up"})
	assert.Equal(t, StageDownloading, job.Stage)
	assert.Equal(t, "dQw4w9WgXcQ", job.VideoID)
	assert.Equal(t, "Never_Gonna_Give_You_Up", job.Title)

	job.MarkTranscoding(1024)
	assert.Equal(t, StageTranscoding, job.Stage)
	assert.Equal(t, int64(1024), job.BytesDownloaded)

	job.MarkDone("/tmp/out/Never_Gonna_Give_You_Up.mp3")
	assert.Equal(t, StageDone, job.Stage)
	assert.Equal(t, "/tmp/out/Never_Gonna_Give_You_Up.mp3", job.OutputPath)
	assert.NotNil(t, job.CompletedAt)
	assert.True(t, job.IsTerminal())
}

func TestJob_MarkFailed(t *testing.T) {
	t.Run("stage error keeps failing stage", func(t *testing.T) {
		job := newTestJob()
		job.MarkResolved(&ResolvedVideo{ID: "abc", Title: "t"})

		err := &StageError{Stage: StageDownloading, Err: fmt.Errorf("%w: connection reset", ErrStream)}
		job.MarkFailed(err)

		assert.Equal(t, StageFailed, job.Stage)
		assert.Equal(t, StageDownloading, job.FailedStage)
		assert.Equal(t, KindStream, job.ErrorKind)
		assert.Equal(t, "downloading failed: stream error: connection reset", job.ErrorMessage)
		assert.True(t, job.IsTerminal())
	})

	t.Run("plain error uses current stage", func(t *testing.T) {
		job := newTestJob()
		job.MarkFailed(errors.New("boom"))

		assert.Equal(t, StageResolving, job.FailedStage)
		assert.Equal(t, KindUnknown, job.ErrorKind)
	})
}

func TestValidateStage(t *testing.T) {
	assert.True(t, ValidateStage(StageDone))
	assert.True(t, ValidateStage("FAILED"))
	assert.False(t, ValidateStage("queued"))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"not found", fmt.Errorf("search: %w", ErrNotFound), KindNotFound},
		{"invalid input", fmt.Errorf("%w: empty", ErrInvalidInput), KindInvalidInput},
		{"network", fmt.Errorf("%w: dial tcp", ErrNetwork), KindNetwork},
		{"io", fmt.Errorf("%w: disk full", ErrIO), KindIO},
		{"stream", fmt.Errorf("%w: eof", ErrStream), KindStream},
		{"transcode", &TranscodeError{Diagnostic: "Invalid data", Err: errors.New("exit status 1")}, KindTranscode},
		{"stage wrapped", &StageError{Stage: StageResolving, Err: ErrNotFound}, KindNotFound},
		{"unknown", errors.New("other"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestNotFoundIsInvalidInput(t *testing.T) {
	assert.True(t, errors.Is(ErrNotFound, ErrInvalidInput))
}

func TestTranscodeError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &TranscodeError{Diagnostic: "Unknown encoder", Err: cause}

	require.ErrorIs(t, err, ErrTranscode)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Unknown encoder")
}
