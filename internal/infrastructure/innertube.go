package infrastructure

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/yourusername/ytdt/internal/domain"
	"go.uber.org/zap"
)

const (
	innertubeSearchPath = "/youtubei/v1/search"
	innertubePlayerPath = "/youtubei/v1/player"

	// Search filter restricting results to videos
	searchParamsVideosOnly = "EgIQAQ=="
)

// clientCodeFromName returns the X-YouTube-Client-Name code of a client
func clientCodeFromName(name string) string {
	switch strings.ToUpper(name) {
	case "WEB":
		return "1"
	case "MWEB":
		return "2"
	case "ANDROID":
		return "3"
	case "IOS":
		return "5"
	default:
		return ""
	}
}

// InnertubeClient talks to the YouTube internal API for search and captions
type InnertubeClient struct {
	httpClient *http.Client
	config     domain.YouTubeConfig
	logger     *zap.Logger
}

// NewInnertubeClient creates a new innertube client
func NewInnertubeClient(httpClient *http.Client, config domain.YouTubeConfig, logger *zap.Logger) *InnertubeClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &InnertubeClient{
		httpClient: httpClient,
		config:     config,
		logger:     logger,
	}
}

type innertubeText struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (t innertubeText) String() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var sb strings.Builder
	for _, r := range t.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

type searchResponse struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer struct {
							Contents []struct {
								VideoRenderer *struct {
									VideoID       string        `json:"videoId"`
									Title         innertubeText `json:"title"`
									OwnerText     innertubeText `json:"ownerText"`
									LengthText    innertubeText `json:"lengthText"`
									ViewCountText innertubeText `json:"viewCountText"`
								} `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []struct {
				BaseURL      string        `json:"baseUrl"`
				Name         innertubeText `json:"name"`
				LanguageCode string        `json:"languageCode"`
				Kind         string        `json:"kind"`
			} `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

// Search returns up to limit video results for query, in ranking order
func (c *InnertubeClient) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	var resp searchResponse
	if err := c.post(ctx, innertubeSearchPath, map[string]any{
		"query":  query,
		"params": searchParamsVideosOnly,
	}, &resp); err != nil {
		return nil, err
	}

	var results []domain.SearchResult
	sections := resp.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents
	for _, section := range sections {
		for _, item := range section.ItemSectionRenderer.Contents {
			v := item.VideoRenderer
			if v == nil || v.VideoID == "" {
				continue
			}
			results = append(results, domain.SearchResult{
				ID:       v.VideoID,
				Title:    v.Title.String(),
				Author:   v.OwnerText.String(),
				Duration: v.LengthText.String(),
				Views:    v.ViewCountText.String(),
			})
			if limit > 0 && len(results) >= limit {
				return results, nil
			}
		}
	}

	c.logger.Debug("Search completed",
		zap.String("query", query),
		zap.Int("results", len(results)))
	return results, nil
}

// CaptionTracks lists the caption tracks offered for a video
func (c *InnertubeClient) CaptionTracks(ctx context.Context, videoID string) ([]domain.SubtitleTrack, error) {
	var resp playerResponse
	if err := c.post(ctx, innertubePlayerPath, map[string]any{
		"videoId": videoID,
	}, &resp); err != nil {
		return nil, err
	}

	if status := resp.PlayabilityStatus.Status; status != "" && status != "OK" {
		return nil, fmt.Errorf("%w: video %s is %s: %s", domain.ErrNotFound, videoID, strings.ToLower(status), resp.PlayabilityStatus.Reason)
	}

	raw := resp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	tracks := make([]domain.SubtitleTrack, 0, len(raw))
	for _, t := range raw {
		tracks = append(tracks, domain.SubtitleTrack{
			LanguageCode: t.LanguageCode,
			DisplayName:  t.Name.String(),
			FetchURL:     t.BaseURL,
			Kind:         t.Kind,
		})
	}
	return tracks, nil
}

func (c *InnertubeClient) post(ctx context.Context, path string, payload map[string]any, out any) error {
	payload["context"] = map[string]any{
		"client": map[string]any{
			"clientName":    c.config.ClientName,
			"clientVersion": c.config.ClientVersion,
			"hl":            c.config.Language,
			"gl":            c.config.Region,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.config.BaseURL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "gzip, br")
	req.Header.Set("Origin", "https://www.youtube.com")
	if code := clientCodeFromName(c.config.ClientName); code != "" {
		req.Header.Set("X-YouTube-Client-Name", code)
	}
	req.Header.Set("X-YouTube-Client-Version", c.config.ClientVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", domain.ErrNetwork, ctx.Err())
		}
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %s", domain.ErrNetwork, path, resp.Status)
	}

	reader, err := decodeBody(resp)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	if err := json.NewDecoder(reader).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to parse %s response: %v", domain.ErrNetwork, path, err)
	}
	return nil
}

// decodeBody unwraps a gzip or brotli encoded response body
func decodeBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}
