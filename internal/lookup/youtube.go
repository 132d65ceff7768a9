// Package lookup holds the fire-and-forget external collaborators: the
// video-search lookup and the music-service now-playing poller. Both
// stay outside the sync core; their output re-enters it through the
// same media-change path user input takes.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/alexredboyPRO/Synkim/internal/config"
	"github.com/alexredboyPRO/Synkim/internal/domain"
)

var ErrNoResults = errors.New("no search results")

// YouTubeSearch resolves a free-text query to a loadable media
// reference via the YouTube Data API search endpoint.
type YouTubeSearch struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewYouTubeSearch(cfg config.LookupConfig) *YouTubeSearch {
	return &YouTubeSearch{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

// FindVideo returns the top video result for a query.
func (s *YouTubeSearch) FindVideo(ctx context.Context, query string) (domain.MediaRef, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("maxResults", "1")
	q.Set("q", query)
	q.Set("key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return domain.MediaRef{}, fmt.Errorf("build search request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.MediaRef{}, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.MediaRef{}, fmt.Errorf("search request: unexpected status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.MediaRef{}, fmt.Errorf("decode search response: %w", err)
	}

	if len(body.Items) == 0 || body.Items[0].ID.VideoID == "" {
		return domain.MediaRef{}, ErrNoResults
	}

	return domain.MediaRef{Kind: domain.MediaVideo, ID: body.Items[0].ID.VideoID}, nil
}
