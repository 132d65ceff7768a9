// Package engine implements the client-side sync engine: it translates
// local player transitions into outbound intents and inbound intents
// into player commands, without feeding either back into the other.
package engine

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexredboyPRO/Synkim/internal/config"
	"github.com/alexredboyPRO/Synkim/internal/domain"
	"github.com/alexredboyPRO/Synkim/internal/player"
	"github.com/alexredboyPRO/Synkim/pkg/log"
)

// Sender is the outbound half of the relay channel. Sends are
// fire-and-forget; a send while disconnected is silently dropped.
type Sender interface {
	Send(message interface{}) error
}

// Engine reconciles one player against the room. All state transitions
// funnel through its mutex: adapter callbacks, inbound relay events, and
// the heartbeat tick never interleave mid-update.
//
// The damping window is an explicit expiry value rather than a flag set
// by one timer and cleared by another: the engine is ApplyingRemote
// while now < remoteExpiry, Idle otherwise. The window is bounded by
// construction and cleared early on player errors, so the engine can
// never get permanently stuck ignoring remote events.
type Engine struct {
	adapter player.Adapter
	sender  Sender
	cfg     config.SyncConfig
	logger  zerolog.Logger

	mu                 sync.Mutex
	media              domain.MediaRef
	lastState          player.State
	remoteExpiry       time.Time
	lastSyncCorrection time.Time
	lastHeartbeatPos   float64
	lastHeartbeatAt    time.Time

	now func() time.Time // injectable clock for tests
}

func New(adapter player.Adapter, sender Sender, cfg config.SyncConfig, logger zerolog.Logger) *Engine {
	return &Engine{
		adapter:   adapter,
		sender:    sender,
		cfg:       cfg,
		logger:    logger,
		lastState: player.StateUnstarted,
		now:       time.Now,
	}
}

// Run pumps player events and the heartbeat until the context ends.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-e.adapter.Events():
			if !ok {
				return nil
			}
			e.OnPlayerEvent(ev)
		case <-ticker.C:
			e.Heartbeat()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// OnPlayerEvent classifies a local player transition: an edge into
// playing or paused that was not caused by a remote apply is user
// intent and gets emitted; everything inside the damping window is an
// echo and is suppressed.
func (e *Engine) OnPlayerEvent(ev player.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ev.Err != nil {
		// A wedged player must not leave the engine deaf to the room.
		e.remoteExpiry = time.Time{}
		e.logger.Warn().Err(ev.Err).Msg("player error, damping cleared")
		return
	}

	prev := e.lastState
	e.lastState = ev.State

	switch ev.State {
	case player.StatePlaying:
		if prev == player.StatePlaying {
			return
		}
		if e.applyingRemote() {
			return
		}
		e.emitIntent(domain.MsgTypePlay)

	case player.StatePaused:
		if prev == player.StatePaused {
			return
		}
		if e.applyingRemote() {
			return
		}
		e.emitIntent(domain.MsgTypePause)

	case player.StateEnded:
		e.remoteExpiry = time.Time{}
	}
}

// HandleRemote applies an intent received from the relay.
func (e *Engine) HandleRemote(ev *domain.Intent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// An event about media we don't have loaded is a media change,
	// never a stale position update.
	if ev.Type == domain.MsgTypeChangeMedia || !ev.Media.Equal(e.media) {
		e.applyMediaChange(ev.Media)
		return
	}

	switch ev.Type {
	case domain.MsgTypePlay:
		e.beginDamping()
		e.correctDrift(ev.Position, e.cfg.DriftThreshold)
		if err := e.adapter.Play(); err != nil {
			e.softFail("play", err)
		}

	case domain.MsgTypePause:
		e.beginDamping()
		e.correctDrift(ev.Position, e.cfg.DriftThreshold)
		if err := e.adapter.Pause(); err != nil {
			e.softFail("pause", err)
		}

	case domain.MsgTypeSync:
		e.applySync(ev.Position)
	}
}

// applySync treats sync as advisory: position-only, larger threshold,
// and at most one corrective seek per cooldown window so periodic float
// drift never causes seek-stutter.
func (e *Engine) applySync(position float64) {
	if e.now().Sub(e.lastSyncCorrection) < e.cfg.SyncCooldown {
		return
	}

	pos, err := e.adapter.Position()
	if err != nil {
		e.softFail("position", err)
		return
	}

	if math.Abs(pos-position) <= e.cfg.SyncDriftThreshold.Seconds() {
		return
	}

	e.beginDamping()
	e.lastSyncCorrection = e.now()
	if err := e.adapter.Seek(position); err != nil {
		e.softFail("seek", err)
	}
}

// HandleRoomState applies the snapshot a joining client receives: load
// whatever the room has, move to its position, and mirror its play
// state — all damped so none of it re-emits.
func (e *Engine) HandleRoomState(msg *domain.RoomStateMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.beginDamping()

	if !msg.Media.IsZero() && !msg.Media.Equal(e.media) {
		if err := e.adapter.Load(msg.Media); err != nil {
			e.softFail("load", err)
			return
		}
		e.media = msg.Media
	}

	if msg.Position > 0 {
		if err := e.adapter.Seek(msg.Position); err != nil {
			e.softFail("seek", err)
		}
	}

	var err error
	if msg.Playing {
		err = e.adapter.Play()
	} else {
		err = e.adapter.Pause()
	}
	if err != nil {
		e.softFail("apply snapshot state", err)
	}
}

// RequestMedia is the local media-change path: user input or a lookup
// result. The change applies locally and is announced to the room.
func (e *Engine) RequestMedia(ref domain.MediaRef) {
	e.mu.Lock()

	if err := e.adapter.Load(ref); err != nil {
		e.softFail("load", err)
		e.mu.Unlock()
		return
	}
	e.resetSnapshot(ref)
	e.mu.Unlock()

	e.send(domain.NewIntent(domain.MsgTypeChangeMedia, ref, 0))
}

// Heartbeat emits the periodic advisory position sync. Suppressed while
// a remote action is being applied, and skipped when paused with an
// unchanged position to keep idle rooms quiet.
func (e *Engine) Heartbeat() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.media.IsZero() || e.applyingRemote() {
		return
	}

	pos, err := e.adapter.Position()
	if err != nil {
		e.softFail("position", err)
		return
	}

	if e.lastState != player.StatePlaying && pos == e.lastHeartbeatPos && !e.lastHeartbeatAt.IsZero() {
		return
	}

	e.lastHeartbeatPos = pos
	e.lastHeartbeatAt = e.now()
	e.sendLocked(domain.NewIntent(domain.MsgTypeSync, e.media, pos))
}

// Media returns the engine's currently loaded media reference.
func (e *Engine) Media() domain.MediaRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.media
}

// applyMediaChange hard-resets onto new media: a media swap always
// starts paused at zero, so the event's position and play state are
// deliberately ignored.
func (e *Engine) applyMediaChange(ref domain.MediaRef) {
	e.beginDamping()

	if err := e.adapter.Load(ref); err != nil {
		e.softFail("load", err)
		return
	}
	e.resetSnapshot(ref)
}

// correctDrift seeks only when local and remote positions disagree by
// more than the threshold; normal network skew stays untouched.
func (e *Engine) correctDrift(position float64, threshold time.Duration) {
	pos, err := e.adapter.Position()
	if err != nil {
		e.softFail("position", err)
		return
	}
	if math.Abs(pos-position) <= threshold.Seconds() {
		return
	}
	if err := e.adapter.Seek(position); err != nil {
		e.softFail("seek", err)
	}
}

func (e *Engine) resetSnapshot(ref domain.MediaRef) {
	e.media = ref
	e.lastState = player.StateCued
	e.lastSyncCorrection = time.Time{}
	e.lastHeartbeatPos = 0
	e.lastHeartbeatAt = time.Time{}
}

func (e *Engine) beginDamping() {
	e.remoteExpiry = e.now().Add(e.cfg.SettleDelay)
}

func (e *Engine) applyingRemote() bool {
	return e.now().Before(e.remoteExpiry)
}

// emitIntent reads the current position and sends a play/pause intent.
// A position read failure degrades to not emitting; the next heartbeat
// or user action recovers naturally.
func (e *Engine) emitIntent(msgType string) {
	pos, err := e.adapter.Position()
	if err != nil {
		e.softFail("position", err)
		return
	}
	e.sendLocked(domain.NewIntent(msgType, e.media, pos))
}

func (e *Engine) sendLocked(intent *domain.Intent) {
	if intent.Media.IsZero() {
		return
	}
	if err := e.sender.Send(intent); err != nil {
		e.logger.Warn().Err(err).Str(log.FieldEvent, intent.Type).Msg("intent send failed")
	}
}

func (e *Engine) send(intent *domain.Intent) {
	if err := e.sender.Send(intent); err != nil {
		e.logger.Warn().Err(err).Str(log.FieldEvent, intent.Type).Msg("intent send failed")
	}
}

// softFail logs an adapter failure and moves on. Adapter errors never
// propagate out of the engine.
func (e *Engine) softFail(op string, err error) {
	e.logger.Warn().Err(err).Str("op", op).Msg("player command failed")
}
