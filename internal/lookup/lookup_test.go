package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/alexredboyPRO/Synkim/internal/config"
	"github.com/alexredboyPRO/Synkim/internal/domain"
)

func TestFindVideo(t *testing.T) {
	ctx := context.Background()

	Convey("Video search", t, func() {
		var gotQuery, gotKey string
		var status int
		var body string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			gotKey = r.URL.Query().Get("key")
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))
		defer server.Close()

		search := NewYouTubeSearch(config.LookupConfig{
			Endpoint: server.URL,
			APIKey:   "k123",
		})

		Convey("Returns the top result as a video reference", func() {
			status = http.StatusOK
			body = `{"items":[{"id":{"videoId":"dQw4w9WgXcQ"}},{"id":{"videoId":"other"}}]}`

			ref, err := search.FindVideo(ctx, "rick astley never gonna give you up")
			So(err, ShouldBeNil)
			So(ref, ShouldResemble, domain.MediaRef{Kind: domain.MediaVideo, ID: "dQw4w9WgXcQ"})
			So(gotQuery, ShouldEqual, "rick astley never gonna give you up")
			So(gotKey, ShouldEqual, "k123")
		})

		Convey("Reports an empty result set", func() {
			status = http.StatusOK
			body = `{"items":[]}`

			_, err := search.FindVideo(ctx, "xxxxxx")
			So(err, ShouldEqual, ErrNoResults)
		})

		Convey("Surfaces upstream errors", func() {
			status = http.StatusForbidden
			body = `{"error":{"message":"quota exceeded"}}`

			_, err := search.FindVideo(ctx, "anything")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNowPlayingPoller(t *testing.T) {
	Convey("Now-playing polling", t, func() {
		var responses chan string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case body := <-responses:
				if body == "" {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				w.Write([]byte(body))
			default:
				w.WriteHeader(http.StatusNoContent)
			}
		}))
		defer server.Close()

		newPoller := func() *NowPlayingPoller {
			return NewNowPlayingPoller(config.MusicConfig{
				Endpoint: server.URL,
				Token:    "t",
				Interval: 10 * time.Millisecond,
			})
		}

		recvWithin := func(p *NowPlayingPoller, wait time.Duration) (Track, bool) {
			select {
			case track := <-p.Tracks():
				return track, true
			case <-time.After(wait):
				return Track{}, false
			}
		}
		recv := func(p *NowPlayingPoller) (Track, bool) {
			return recvWithin(p, 2*time.Second)
		}

		Convey("Publishes a track change exactly once", func() {
			responses = make(chan string, 8)
			playing := `{"is_playing":true,"item":{"name":"Song A","artists":[{"name":"Artist"}]}}`
			responses <- playing
			responses <- playing
			responses <- playing

			p := newPoller()
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go p.Run(ctx)

			track, ok := recv(p)
			So(ok, ShouldBeTrue)
			So(track, ShouldResemble, Track{Artist: "Artist", Title: "Song A"})

			_, again := recvWithin(p, 100*time.Millisecond)
			So(again, ShouldBeFalse)
		})

		Convey("Ignores the nothing-playing response", func() {
			responses = make(chan string, 8)
			responses <- "" // 204
			responses <- `{"is_playing":false,"item":{"name":"Paused Song"}}`
			responses <- `{"is_playing":true,"item":{"name":"Song B"}}`

			p := newPoller()
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go p.Run(ctx)

			track, ok := recv(p)
			So(ok, ShouldBeTrue)
			So(track.Title, ShouldEqual, "Song B")
		})
	})
}

func TestTrackQuery(t *testing.T) {
	Convey("Track search queries", t, func() {
		So(Track{Artist: "Artist", Title: "Song"}.Query(), ShouldEqual, "Artist Song")
		So(Track{Title: "Song"}.Query(), ShouldEqual, "Song")
		So(Track{}.IsZero(), ShouldBeTrue)
		So(Track{Title: "Song"}.IsZero(), ShouldBeFalse)
	})
}
