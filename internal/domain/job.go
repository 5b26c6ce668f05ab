package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStage represents the pipeline state of a job
type JobStage string

const (
	StageResolving   JobStage = "resolving"
	StageDownloading JobStage = "downloading"
	StageTranscoding JobStage = "transcoding"
	StageDone        JobStage = "done"
	StageFailed      JobStage = "failed"
)

// Job is one download-and-transcode invocation as recorded in history
type Job struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	Input           string     `json:"input" gorm:"not null"`
	Format          string     `json:"format" gorm:"not null"`
	SubtitleLang    string     `json:"subtitle_lang,omitempty"`
	OutputDir       string     `json:"output_dir"`
	VideoID         string     `json:"video_id,omitempty" gorm:"index"`
	Title           string     `json:"title,omitempty"`
	Stage           JobStage   `json:"stage" gorm:"not null;index"`
	FailedStage     JobStage   `json:"failed_stage,omitempty"`
	ErrorKind       ErrorKind  `json:"error_kind,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty" gorm:"type:text"`
	OutputPath      string     `json:"output_path,omitempty"`
	SubtitlePath    string     `json:"subtitle_path,omitempty"`
	BytesDownloaded int64      `json:"bytes_downloaded"`
	CreatedAt       time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// NewJob creates a job for a request in the resolving stage
func NewJob(req VideoRequest) *Job {
	now := time.Now()
	return &Job{
		ID:           uuid.New().String(),
		Input:        req.Input,
		Format:       req.Format,
		SubtitleLang: req.SubtitleLang,
		OutputDir:    req.OutputDir,
		Stage:        StageResolving,
		CreatedAt:    now,
		UpdatedAt:    now,
		StartedAt:    &now,
	}
}

// ShortID returns the first eight characters of the job ID
func (j *Job) ShortID() string {
	if len(j.ID) <= 8 {
		return j.ID
	}
	return j.ID[:8]
}

// MarkResolved records the resolved video and moves the job to downloading
func (j *Job) MarkResolved(video *ResolvedVideo) {
	j.VideoID = video.ID
	j.Title = video.Title
	j.advance(StageDownloading)
}

// MarkTranscoding moves the job to the transcoding stage
func (j *Job) MarkTranscoding(bytesDownloaded int64) {
	j.BytesDownloaded = bytesDownloaded
	j.advance(StageTranscoding)
}

// MarkDone marks the job as finished with its final artifact
func (j *Job) MarkDone(outputPath string) {
	j.OutputPath = outputPath
	now := time.Now()
	j.CompletedAt = &now
	j.advance(StageDone)
}

// MarkFailed marks the job as failed, keeping the stage that failed
func (j *Job) MarkFailed(err error) {
	failed := j.Stage
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		failed = stageErr.Stage
	}
	j.FailedStage = failed
	j.ErrorKind = KindOf(err)
	if err != nil {
		j.ErrorMessage = err.Error()
	}
	now := time.Now()
	j.CompletedAt = &now
	j.advance(StageFailed)
}

func (j *Job) advance(stage JobStage) {
	j.Stage = stage
	j.UpdatedAt = time.Now()
}

// IsTerminal checks if the job is in a terminal state
func (j *Job) IsTerminal() bool {
	return j.Stage == StageDone || j.Stage == StageFailed
}

// Duration returns how long the job ran, or has been running
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if j.CompletedAt != nil {
		end = *j.CompletedAt
	}
	return end.Sub(*j.StartedAt)
}

// ValidateStage checks if a stage name is known
func ValidateStage(stage JobStage) bool {
	switch JobStage(strings.ToLower(string(stage))) {
	case StageResolving, StageDownloading, StageTranscoding, StageDone, StageFailed:
		return true
	}
	return false
}

// JobStats represents job history statistics
type JobStats struct {
	Total       int64 `json:"total"`
	Resolving   int64 `json:"resolving"`
	Downloading int64 `json:"downloading"`
	Transcoding int64 `json:"transcoding"`
	Done        int64 `json:"done"`
	Failed      int64 `json:"failed"`
	BytesTotal  int64 `json:"bytes_total"`
}
