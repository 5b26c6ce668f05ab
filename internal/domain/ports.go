package domain

import "context"

// Resolver turns a URL or search query into a playable video
type Resolver interface {
	Resolve(ctx context.Context, rawInput string) (*ResolvedVideo, error)
}

// Searcher runs a text search and returns ranked results
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// CaptionLister lists the caption tracks of a video
type CaptionLister interface {
	CaptionTracks(ctx context.Context, videoID string) ([]SubtitleTrack, error)
}

// SubtitleFetcher writes the track matching languageCode to destPath.
// It returns an empty path when no track matches.
type SubtitleFetcher interface {
	FetchSubtitle(ctx context.Context, videoID, languageCode, destPath string) (string, error)
}

// Downloader streams a source to destPath and returns the bytes written
type Downloader interface {
	Download(ctx context.Context, source PlayableSource, destPath string, sink ProgressSink) (int64, error)
}

// Transcoder converts a downloaded file and returns the output path
type Transcoder interface {
	Transcode(ctx context.Context, spec TranscodeSpec) (string, error)
}

// Notifier announces job outcomes
type Notifier interface {
	NotifyJobCompleted(job *Job)
	NotifyJobFailed(job *Job, err error)
}

// JobRepository defines the interface for job history persistence
type JobRepository interface {
	// Create stores a new job
	Create(job *Job) error

	// Update saves an existing job
	Update(job *Job) error

	// Delete deletes a job by ID
	Delete(id string) error

	// FindByID finds a job by its full ID or a unique prefix of it
	FindByID(id string) (*Job, error)

	// FindAll finds jobs with optional filters, newest first
	FindAll(filters map[string]interface{}, limit int) ([]*Job, error)

	// GetStats returns job statistics
	GetStats() (*JobStats, error)
}
