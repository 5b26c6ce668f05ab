package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/yourusername/ytdt/internal/domain"
	"go.uber.org/zap"
)

// CaptionFetcher downloads WebVTT caption tracks
type CaptionFetcher struct {
	lister     domain.CaptionLister
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
}

// NewCaptionFetcher creates a new caption fetcher
func NewCaptionFetcher(lister domain.CaptionLister, httpClient *http.Client, userAgent string, logger *zap.Logger) *CaptionFetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CaptionFetcher{
		lister:     lister,
		httpClient: httpClient,
		userAgent:  userAgent,
		logger:     logger,
	}
}

// FetchSubtitle writes the track for languageCode to destPath as WebVTT.
// It returns "" and no error when the video has no such track.
func (f *CaptionFetcher) FetchSubtitle(ctx context.Context, videoID, languageCode, destPath string) (string, error) {
	tracks, err := f.lister.CaptionTracks(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("list captions of %s: %w", videoID, err)
	}

	track, ok := pickTrack(tracks, languageCode)
	if !ok {
		f.logger.Info("No caption track for language",
			zap.String("video_id", videoID),
			zap.String("lang", languageCode),
			zap.Int("available", len(tracks)))
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, vttURL(track.FetchURL), nil)
	if err != nil {
		return "", fmt.Errorf("%w: caption url: %v", domain.ErrNetwork, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: caption track returned %s", domain.ErrNetwork, resp.Status)
	}

	file, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrIO, err)
	}
	n, err := io.Copy(file, resp.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("%w: write subtitles: %v", domain.ErrIO, err)
	}

	f.logger.Info("Subtitles saved",
		zap.String("video_id", videoID),
		zap.String("lang", track.LanguageCode),
		zap.Bool("auto_generated", track.IsAutoGenerated()),
		zap.String("path", destPath),
		zap.String("size", humanize.Bytes(uint64(n))))
	return destPath, nil
}

// pickTrack returns the track for lang, preferring manual captions over
// auto-generated ones
func pickTrack(tracks []domain.SubtitleTrack, lang string) (domain.SubtitleTrack, bool) {
	var (
		fallback domain.SubtitleTrack
		found    bool
	)
	for _, t := range tracks {
		if !strings.EqualFold(t.LanguageCode, lang) || t.FetchURL == "" {
			continue
		}
		if !t.IsAutoGenerated() {
			return t, true
		}
		if !found {
			fallback, found = t, true
		}
	}
	return fallback, found
}

func vttURL(base string) string {
	sep := "&"
	if !strings.Contains(base, "?") {
		sep = "?"
	}
	return base + sep + "fmt=vtt"
}
