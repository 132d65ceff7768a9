// The watcher is a headless room participant: it drives a local mpv
// player, keeps it converged with the room via the relay, and can
// optionally mirror the user's currently-playing music-service track
// into the room.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/alexredboyPRO/Synkim/internal/config"
	"github.com/alexredboyPRO/Synkim/internal/domain"
	"github.com/alexredboyPRO/Synkim/internal/engine"
	"github.com/alexredboyPRO/Synkim/internal/lookup"
	"github.com/alexredboyPRO/Synkim/internal/player"
	"github.com/alexredboyPRO/Synkim/internal/transport"
	"github.com/alexredboyPRO/Synkim/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(log.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "watcher",
	})
	l := log.L()

	adapter := player.NewMPV()
	defer adapter.Close()

	channel := transport.NewChannel(cfg.Watcher.RelayURL, cfg.Watcher.Token)
	defer channel.Close()

	eng := engine.New(adapter, channel, cfg.Sync, l)

	var announceOnce sync.Once
	channel.OnConnect = func() {
		channel.Send(&domain.JoinMessage{Type: domain.MsgTypeJoin, RoomID: cfg.Watcher.RoomID})

		// An explicitly requested media overrides whatever the room
		// currently has, once, on the first connect.
		if cfg.Watcher.Media == "" {
			return
		}
		announceOnce.Do(func() {
			ref, err := domain.ParseMediaRef(cfg.Watcher.Media)
			if err != nil {
				l.Warn().Err(err).Str(log.FieldMedia, cfg.Watcher.Media).Msg("ignoring invalid media argument")
				return
			}
			eng.RequestMedia(ref)
		})
	}
	channel.OnStateChange = func(connected bool) {
		l.Info().Bool("connected", connected).Msg("relay connectivity changed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return channel.Run(ctx) })
	g.Go(func() error { return eng.Run(ctx) })
	g.Go(func() error { return dispatch(ctx, channel, eng) })

	if cfg.Watcher.Music.Enabled {
		poller := lookup.NewNowPlayingPoller(cfg.Watcher.Music)
		search := lookup.NewYouTubeSearch(cfg.Watcher.Lookup)

		g.Go(func() error { return poller.Run(ctx) })
		g.Go(func() error { return mirrorTracks(ctx, poller, search, eng) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, transport.ErrClosed) {
		l.Error().Err(err).Msg("watcher stopped")
		os.Exit(1)
	}
	l.Info().Msg("watcher stopped")
}

// dispatch routes relay messages into the engine.
func dispatch(ctx context.Context, channel *transport.Channel, eng *engine.Engine) error {
	l := log.L()

	for {
		select {
		case raw := <-channel.Inbound():
			var base domain.BaseMessage
			if err := json.Unmarshal(raw, &base); err != nil {
				l.Warn().Err(err).Msg("unparseable relay message")
				continue
			}

			switch {
			case base.Type == domain.MsgTypeRoomState:
				var msg domain.RoomStateMessage
				if err := json.Unmarshal(raw, &msg); err != nil {
					l.Warn().Err(err).Msg("invalid room_state message")
					continue
				}
				eng.HandleRoomState(&msg)

			case domain.IsIntentType(base.Type):
				var intent domain.Intent
				if err := json.Unmarshal(raw, &intent); err != nil {
					l.Warn().Err(err).Msg("invalid intent message")
					continue
				}
				eng.HandleRemote(&intent)

			case base.Type == domain.MsgTypeError:
				var msg domain.ErrorMessage
				if err := json.Unmarshal(raw, &msg); err != nil {
					continue
				}
				l.Warn().Str("code", msg.Code).Str("message", msg.Message).Msg("relay error")
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// mirrorTracks turns now-playing track changes into room media changes:
// look the track up on YouTube, load the result, announce it.
func mirrorTracks(ctx context.Context, poller *lookup.NowPlayingPoller, search *lookup.YouTubeSearch, eng *engine.Engine) error {
	l := log.L()

	for {
		select {
		case track := <-poller.Tracks():
			ref, err := search.FindVideo(ctx, track.Query())
			if err != nil {
				l.Warn().Err(err).Str("query", track.Query()).Msg("track lookup failed")
				continue
			}
			l.Info().Str("query", track.Query()).Str(log.FieldMedia, ref.String()).Msg("mirroring track to room")
			eng.RequestMedia(ref)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
