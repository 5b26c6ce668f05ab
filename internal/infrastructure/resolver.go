package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/yourusername/ytdt/internal/domain"
	"go.uber.org/zap"
)

// VideoClient is the part of the youtube client the resolver needs
type VideoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// NewYouTubeClient builds a youtube client for metadata and streams.
// Only connection setup and response headers are bounded by timeout, the
// body of a stream may take as long as it needs.
func NewYouTubeClient(timeout time.Duration) *youtube.Client {
	return &youtube.Client{
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConnsPerHost:   4,
			},
		},
	}
}

// YouTubeResolver resolves URLs directly and free text through search
type YouTubeResolver struct {
	videos   VideoClient
	searcher domain.Searcher
	logger   *zap.Logger
}

// NewYouTubeResolver creates a new resolver
func NewYouTubeResolver(videos VideoClient, searcher domain.Searcher, logger *zap.Logger) *YouTubeResolver {
	return &YouTubeResolver{
		videos:   videos,
		searcher: searcher,
		logger:   logger,
	}
}

// Resolve turns a URL or search query into a playable video
func (r *YouTubeResolver) Resolve(ctx context.Context, rawInput string) (*domain.ResolvedVideo, error) {
	input := strings.TrimSpace(rawInput)
	if input == "" {
		return nil, fmt.Errorf("%w: empty url or query", domain.ErrInvalidInput)
	}

	if id, ok := domain.ExtractVideoID(input); ok {
		r.logger.Debug("Input recognized as video URL", zap.String("video_id", id))
		return r.lookup(ctx, id)
	}
	if domain.IsVideoURL(input) {
		return nil, fmt.Errorf("%w: no video id in %q", domain.ErrInvalidInput, input)
	}

	results, err := r.searcher.Search(ctx, input, 1)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", input, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no results for %q", domain.ErrNotFound, input)
	}

	r.logger.Info("Search matched video",
		zap.String("query", input),
		zap.String("video_id", results[0].ID),
		zap.String("title", results[0].Title))
	return r.lookup(ctx, results[0].ID)
}

func (r *YouTubeResolver) lookup(ctx context.Context, id string) (*domain.ResolvedVideo, error) {
	video, err := r.videos.GetVideoContext(ctx, domain.WatchURL(id))
	if err != nil {
		return nil, classifyYouTubeError(ctx, id, err)
	}

	format := selectProgressiveFormat(video.Formats)
	if format == nil {
		return nil, fmt.Errorf("%w: video %s has no progressive audio and video format", domain.ErrNotFound, id)
	}

	r.logger.Debug("Selected stream format",
		zap.String("video_id", video.ID),
		zap.Int("itag", format.ItagNo),
		zap.String("quality", format.QualityLabel),
		zap.String("mime_type", format.MimeType))

	return &domain.ResolvedVideo{
		ID:       video.ID,
		Title:    domain.SanitizeTitle(video.Title),
		RawTitle: video.Title,
		Author:   video.Author,
		Duration: video.Duration,
		Source:   &youtubeSource{client: r.videos, video: video, format: format},
	}, nil
}

// selectProgressiveFormat picks the tallest format carrying both audio and
// video, breaking ties on bitrate
func selectProgressiveFormat(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels == 0 || f.Width == 0 || f.Height == 0 {
			continue
		}
		if best == nil || betterVideoFormat(f, best) {
			best = f
		}
	}
	return best
}

func betterVideoFormat(candidate, current *youtube.Format) bool {
	if candidate.Height != current.Height {
		return candidate.Height > current.Height
	}
	return bitrateForFormat(candidate) > bitrateForFormat(current)
}

func bitrateForFormat(f *youtube.Format) int {
	if f.Bitrate > 0 {
		return f.Bitrate
	}
	return f.AverageBitrate
}

func classifyYouTubeError(ctx context.Context, id string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", domain.ErrNetwork, ctx.Err())
	}

	switch {
	case errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return fmt.Errorf("%w: video %s is restricted: %v", domain.ErrNotFound, id, err)
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return fmt.Errorf("%w: bad video id %s: %v", domain.ErrInvalidInput, id, err)
	}

	var statusErr *youtube.ErrPlayabiltyStatus
	if errors.As(err, &statusErr) {
		return fmt.Errorf("%w: video %s unavailable: %v", domain.ErrNotFound, id, err)
	}
	return fmt.Errorf("%w: metadata for %s: %v", domain.ErrNetwork, id, err)
}

// youtubeSource streams one chosen format of a resolved video
type youtubeSource struct {
	client VideoClient
	video  *youtube.Video
	format *youtube.Format
}

func (s *youtubeSource) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	return s.client.GetStreamContext(ctx, s.video, s.format)
}

func (s *youtubeSource) String() string {
	return fmt.Sprintf("%s itag=%d %s", s.video.ID, s.format.ItagNo, s.format.QualityLabel)
}
