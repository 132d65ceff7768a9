package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alexredboyPRO/Synkim/internal/config"
	"github.com/alexredboyPRO/Synkim/pkg/log"
)

// Track describes what the music service reports as currently playing.
type Track struct {
	Artist string
	Title  string
}

// Query renders the track as a video-search query.
func (t Track) Query() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " " + t.Title
}

func (t Track) IsZero() bool {
	return t.Title == ""
}

// NowPlayingPoller periodically asks the external music service what
// track the user is playing and publishes changes on a channel. It is
// an independently scheduled background task; consumers re-enter the
// sync path with its output.
type NowPlayingPoller struct {
	endpoint string
	token    string
	interval time.Duration
	client   *http.Client

	tracks chan Track
	last   Track
}

func NewNowPlayingPoller(cfg config.MusicConfig) *NowPlayingPoller {
	return &NowPlayingPoller{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		interval: cfg.Interval,
		client:   &http.Client{Timeout: 10 * time.Second},
		tracks:   make(chan Track, 4),
	}
}

// Tracks delivers a value each time the currently-playing track changes.
func (p *NowPlayingPoller) Tracks() <-chan Track {
	return p.tracks
}

// Run polls until the context ends. Poll failures are logged and
// retried on the next tick; the poller never takes the process down.
func (p *NowPlayingPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			track, err := p.fetch(ctx)
			if err != nil {
				l := log.L()
				l.Warn().Err(err).Msg("now-playing poll failed")
				continue
			}
			if track.IsZero() || track == p.last {
				continue
			}
			p.last = track
			select {
			case p.tracks <- track:
			default:
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type nowPlayingResponse struct {
	IsPlaying bool `json:"is_playing"`
	Item      struct {
		Name    string `json:"name"`
		Artists []struct {
			Name string `json:"name"`
		} `json:"artists"`
	} `json:"item"`
}

func (p *NowPlayingPoller) fetch(ctx context.Context) (Track, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return Track{}, fmt.Errorf("build now-playing request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return Track{}, fmt.Errorf("now-playing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 means nothing is playing.
	if resp.StatusCode == http.StatusNoContent {
		return Track{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Track{}, fmt.Errorf("now-playing request: unexpected status %d", resp.StatusCode)
	}

	var body nowPlayingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Track{}, fmt.Errorf("decode now-playing response: %w", err)
	}

	if !body.IsPlaying || body.Item.Name == "" {
		return Track{}, nil
	}

	track := Track{Title: body.Item.Name}
	if len(body.Item.Artists) > 0 {
		track.Artist = body.Item.Artists[0].Name
	}
	return track, nil
}
