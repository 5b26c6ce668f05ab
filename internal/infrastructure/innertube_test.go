package infrastructure

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/ytdt/internal/domain"
	"go.uber.org/zap"
)

const searchFixture = `{
  "contents": {"twoColumnSearchResultsRenderer": {"primaryContents": {"sectionListRenderer": {"contents": [
    {"itemSectionRenderer": {"contents": [
      {"adSlotRenderer": {}},
      {"videoRenderer": {
        "videoId": "dQw4w9WgXcQ",
        "title": {"runs": [{"text": "Rick Astley - "}, {"text": "Never Gonna Give You Up"}]},
        "ownerText": {"runs": [{"text": "Rick Astley"}]},
        "lengthText": {"simpleText": "3:33"},
        "viewCountText": {"simpleText": "1,000,000 views"}
      }},
      {"videoRenderer": {"videoId": "9bZkp7q19f0", "title": {"runs": [{"text": "Gangnam Style"}]}}},
      {"videoRenderer": {"videoId": "kJQP7kiw5Fk", "title": {"runs": [{"text": "Despacito"}]}}}
    ]}}
  ]}}}}
}`

const playerFixture = `{
  "playabilityStatus": {"status": "OK"},
  "captions": {"playerCaptionsTracklistRenderer": {"captionTracks": [
    {"baseUrl": "https://example.test/api/timedtext?v=dQw4w9WgXcQ&lang=en", "name": {"simpleText": "English"}, "languageCode": "en"},
    {"baseUrl": "https://example.test/api/timedtext?v=dQw4w9WgXcQ&lang=de&kind=asr", "name": {"runs": [{"text": "German (auto-generated)"}]}, "languageCode": "de", "kind": "asr"}
  ]}}
}`

func newInnertubeServer(t *testing.T, handler http.HandlerFunc) (*InnertubeClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := domain.DefaultConfig().YouTube
	config.BaseURL = server.URL
	return NewInnertubeClient(server.Client(), config, zap.NewNop()), server
}

func TestInnertubeSearch_GzipResponse(t *testing.T) {
	var body map[string]any
	client, _ := newInnertubeServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/youtubei/v1/search", r.URL.Path)
		assert.Equal(t, "1", r.Header.Get("X-YouTube-Client-Name"))
		assert.NotEmpty(t, r.Header.Get("X-YouTube-Client-Version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte(searchFixture))
		gz.Close()
	})

	results, err := client.Search(context.Background(), "never gonna give you up", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "dQw4w9WgXcQ", results[0].ID)
	assert.Equal(t, "Rick Astley - Never Gonna Give You Up", results[0].Title)
	assert.Equal(t, "Rick Astley", results[0].Author)
	assert.Equal(t, "3:33", results[0].Duration)
	assert.Equal(t, "9bZkp7q19f0", results[1].ID)

	assert.Equal(t, "never gonna give you up", body["query"])
	client_ := body["context"].(map[string]any)["client"].(map[string]any)
	assert.Equal(t, "WEB", client_["clientName"])
	assert.Equal(t, "en", client_["hl"])
}

func TestInnertubeSearch_NoResults(t *testing.T) {
	client, _ := newInnertubeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"contents": {}}`))
	})

	results, err := client.Search(context.Background(), "zxqv nothing matches", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestInnertubeSearch_HTTPError(t *testing.T) {
	client, _ := newInnertubeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Search(context.Background(), "anything", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestInnertubeCaptionTracks_BrotliResponse(t *testing.T) {
	client, _ := newInnertubeServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtubei/v1/player", r.URL.Path)

		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		bw.Write([]byte(playerFixture))
		bw.Close()
	})

	tracks, err := client.CaptionTracks(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	assert.Equal(t, "en", tracks[0].LanguageCode)
	assert.Equal(t, "English", tracks[0].DisplayName)
	assert.False(t, tracks[0].IsAutoGenerated())
	assert.Equal(t, "German (auto-generated)", tracks[1].DisplayName)
	assert.True(t, tracks[1].IsAutoGenerated())
}

func TestInnertubeCaptionTracks_Unplayable(t *testing.T) {
	client, _ := newInnertubeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"playabilityStatus": {"status": "ERROR", "reason": "Video unavailable"}}`))
	})

	_, err := client.CaptionTracks(context.Background(), "aaaaaaaaaaa")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
