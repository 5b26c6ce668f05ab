package domain

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// VideoRequest is the validated input of one pipeline run
type VideoRequest struct {
	Input        string // URL or free-text query
	OutputDir    string
	Format       string
	SubtitleLang string // empty means no subtitles
}

// PlayableSource is an opaque handle from which media bytes can be streamed
type PlayableSource interface {
	// Open starts the stream and reports its size, 0 when unknown
	Open(ctx context.Context) (io.ReadCloser, int64, error)
	String() string
}

// ResolvedVideo is the result of resolving a request
type ResolvedVideo struct {
	ID       string
	Title    string // sanitized, safe for paths
	RawTitle string
	Author   string
	Duration time.Duration
	Source   PlayableSource
}

// SearchResult is one ranked hit of a text search
type SearchResult struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author,omitempty"`
	Duration string `json:"duration,omitempty"`
	Views    string `json:"views,omitempty"`
}

// WatchURL returns the canonical watch URL of the result
func (r SearchResult) WatchURL() string {
	return WatchURL(r.ID)
}

// WatchURL builds the canonical watch URL for a video ID
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// SubtitleTrack is a caption track offered for a video
type SubtitleTrack struct {
	LanguageCode string
	DisplayName  string
	FetchURL     string
	Kind         string // "asr" for auto-generated captions
}

// IsAutoGenerated reports whether the track is speech-recognized
func (t SubtitleTrack) IsAutoGenerated() bool {
	return t.Kind == "asr"
}

// SubtitleMode selects how the transcoder treats subtitles. The only
// implementations are Embedded and PlainConversion.
type SubtitleMode interface {
	subtitleMode()
}

// Embedded burns the subtitle file at Path into the video frames
type Embedded struct {
	Path string
}

// PlainConversion converts the container without subtitles
type PlainConversion struct{}

func (Embedded) subtitleMode()        {}
func (PlainConversion) subtitleMode() {}

// SubtitlesFor returns Embedded for a non-empty path and PlainConversion otherwise
func SubtitlesFor(path string) SubtitleMode {
	if path == "" {
		return PlainConversion{}
	}
	return Embedded{Path: path}
}

// TranscodeSpec describes one conversion of a downloaded temp file
type TranscodeSpec struct {
	JobID        string
	InputPath    string
	OutputPath   string
	TargetFormat string
	Subtitles    SubtitleMode
	Duration     time.Duration // 0 lets the transcoder probe the input
	OnProgress   func(fraction float64)
}

// JobPaths holds every file a job may create
type JobPaths struct {
	Output   string
	Temp     string
	Subtitle string
}

// PathsFor derives the output, temp and subtitle paths for a sanitized title
func PathsFor(dir, title, format string) JobPaths {
	return JobPaths{
		Output:   filepath.Join(dir, fmt.Sprintf("%s.%s", title, format)),
		Temp:     filepath.Join(dir, fmt.Sprintf("%s-temp.%s", title, format)),
		Subtitle: filepath.Join(dir, title+".vtt"),
	}
}

// Supported output formats. The first five are offered interactively.
var (
	SupportedFormats = []string{"mp3", "mp4", "flac", "wav", "mov", "mkv", "webm", "m4a", "ogg", "opus"}
	audioOnlyFormats = map[string]bool{"mp3": true, "flac": true, "wav": true, "m4a": true, "ogg": true, "opus": true}
)

// NormalizeFormat lowercases a format and strips a leading dot
func NormalizeFormat(format string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
}

// ValidateFormat checks if the target format is supported
func ValidateFormat(format string) bool {
	format = NormalizeFormat(format)
	for _, f := range SupportedFormats {
		if f == format {
			return true
		}
	}
	return false
}

// IsAudioOnlyFormat reports whether the format has no video stream
func IsAudioOnlyFormat(format string) bool {
	return audioOnlyFormats[NormalizeFormat(format)]
}
