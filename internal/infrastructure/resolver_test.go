package infrastructure

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/ytdt/internal/domain"
	"go.uber.org/zap"
)

type fakeVideoClient struct {
	videos    map[string]*youtube.Video
	err       error
	requested []string
	payload   string
}

func (c *fakeVideoClient) GetVideoContext(ctx context.Context, url string) (*youtube.Video, error) {
	c.requested = append(c.requested, url)
	if c.err != nil {
		return nil, c.err
	}
	for id, v := range c.videos {
		if strings.HasSuffix(url, "v="+id) {
			return v, nil
		}
	}
	return nil, &youtube.ErrPlayabiltyStatus{Status: "ERROR", Reason: "Video unavailable"}
}

func (c *fakeVideoClient) GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error) {
	return io.NopCloser(strings.NewReader(c.payload)), int64(len(c.payload)), nil
}

type fakeSearcher struct {
	results []domain.SearchResult
	err     error
	queries []string
}

func (s *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	if limit > 0 && len(s.results) > limit {
		return s.results[:limit], nil
	}
	return s.results, nil
}

func rickroll() *youtube.Video {
	return &youtube.Video{
		ID:       "dQw4w9WgXcQ",
		Title:    "Rick Astley: Never Gonna Give You Up?",
		Author:   "Rick Astley",
		Duration: 213 * time.Second,
		Formats: youtube.FormatList{
			{ItagNo: 140, MimeType: "audio/mp4", AudioChannels: 2, Bitrate: 130000},
			{ItagNo: 18, MimeType: "video/mp4", AudioChannels: 2, Width: 640, Height: 360, Bitrate: 500000, QualityLabel: "360p"},
			{ItagNo: 22, MimeType: "video/mp4", AudioChannels: 2, Width: 1280, Height: 720, Bitrate: 1200000, QualityLabel: "720p"},
			{ItagNo: 137, MimeType: "video/mp4", Width: 1920, Height: 1080, Bitrate: 4000000, QualityLabel: "1080p"},
		},
	}
}

func TestResolve_URLShapesResolveSameVideo(t *testing.T) {
	videos := &fakeVideoClient{videos: map[string]*youtube.Video{"dQw4w9WgXcQ": rickroll()}, payload: "data"}
	searcher := &fakeSearcher{}
	resolver := NewYouTubeResolver(videos, searcher, zap.NewNop())

	for _, input := range []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"youtube.com/watch?feature=share&v=dQw4w9WgXcQ",
	} {
		t.Run(input, func(t *testing.T) {
			video, err := resolver.Resolve(context.Background(), input)
			require.NoError(t, err)
			assert.Equal(t, "dQw4w9WgXcQ", video.ID)
			assert.Equal(t, "Rick_Astley__Never_Gonna_Give_You_Up", video.Title)
			assert.Equal(t, "Rick Astley: Never Gonna Give You Up?", video.RawTitle)
			assert.Equal(t, 213*time.Second, video.Duration)
		})
	}
	assert.Empty(t, searcher.queries)
}

func TestResolve_PicksBestProgressiveFormat(t *testing.T) {
	videos := &fakeVideoClient{videos: map[string]*youtube.Video{"dQw4w9WgXcQ": rickroll()}, payload: "media"}
	resolver := NewYouTubeResolver(videos, &fakeSearcher{}, zap.NewNop())

	video, err := resolver.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ itag=22 720p", video.Source.String())

	stream, size, err := video.Source.Open(context.Background())
	require.NoError(t, err)
	defer stream.Close()
	assert.Equal(t, int64(5), size)
}

func TestResolve_QueryUsesFirstSearchResult(t *testing.T) {
	videos := &fakeVideoClient{videos: map[string]*youtube.Video{"dQw4w9WgXcQ": rickroll()}}
	searcher := &fakeSearcher{results: []domain.SearchResult{
		{ID: "dQw4w9WgXcQ", Title: "Never Gonna Give You Up"},
		{ID: "9bZkp7q19f0", Title: "Gangnam Style"},
	}}
	resolver := NewYouTubeResolver(videos, searcher, zap.NewNop())

	video, err := resolver.Resolve(context.Background(), "  never gonna give you up ")
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", video.ID)
	assert.Equal(t, []string{"never gonna give you up"}, searcher.queries)
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}, videos.requested)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		videos   *fakeVideoClient
		searcher *fakeSearcher
		kind     domain.ErrorKind
	}{
		{
			name:     "empty input",
			input:    "   ",
			videos:   &fakeVideoClient{},
			searcher: &fakeSearcher{},
			kind:     domain.KindInvalidInput,
		},
		{
			name:     "youtube url without id",
			input:    "https://www.youtube.com/feed/trending",
			videos:   &fakeVideoClient{},
			searcher: &fakeSearcher{},
			kind:     domain.KindInvalidInput,
		},
		{
			name:     "query without hits",
			input:    "zxqv no such video anywhere",
			videos:   &fakeVideoClient{},
			searcher: &fakeSearcher{},
			kind:     domain.KindNotFound,
		},
		{
			name:     "search transport failure",
			input:    "lofi beats",
			videos:   &fakeVideoClient{},
			searcher: &fakeSearcher{err: domain.ErrNetwork},
			kind:     domain.KindNetwork,
		},
		{
			name:     "unavailable video",
			input:    "https://youtu.be/aaaaaaaaaaa",
			videos:   &fakeVideoClient{videos: map[string]*youtube.Video{}},
			searcher: &fakeSearcher{},
			kind:     domain.KindNotFound,
		},
		{
			name:     "private video",
			input:    "https://youtu.be/aaaaaaaaaaa",
			videos:   &fakeVideoClient{err: youtube.ErrVideoPrivate},
			searcher: &fakeSearcher{},
			kind:     domain.KindNotFound,
		},
		{
			name:     "metadata transport failure",
			input:    "https://youtu.be/aaaaaaaaaaa",
			videos:   &fakeVideoClient{err: errors.New("connection reset by peer")},
			searcher: &fakeSearcher{},
			kind:     domain.KindNetwork,
		},
		{
			name:  "no progressive format",
			input: "https://youtu.be/dQw4w9WgXcQ",
			videos: &fakeVideoClient{videos: map[string]*youtube.Video{"dQw4w9WgXcQ": {
				ID:      "dQw4w9WgXcQ",
				Title:   "Audio only",
				Formats: youtube.FormatList{{ItagNo: 140, AudioChannels: 2}},
			}}},
			searcher: &fakeSearcher{},
			kind:     domain.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewYouTubeResolver(tt.videos, tt.searcher, zap.NewNop())
			video, err := resolver.Resolve(context.Background(), tt.input)
			require.Error(t, err)
			assert.Nil(t, video)
			assert.Equal(t, tt.kind, domain.KindOf(err))
		})
	}
}

func TestSelectProgressiveFormat_TieBreaksOnBitrate(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 1, AudioChannels: 2, Width: 640, Height: 360, Bitrate: 100},
		{ItagNo: 2, AudioChannels: 2, Width: 640, Height: 360, AverageBitrate: 300},
		{ItagNo: 3, AudioChannels: 2, Width: 640, Height: 360, Bitrate: 200},
	}

	best := selectProgressiveFormat(formats)
	require.NotNil(t, best)
	assert.Equal(t, 2, best.ItagNo)
	assert.Nil(t, selectProgressiveFormat(nil))
}
