package service

import (
	"context"
	"sync"
	"time"

	"github.com/alexredboyPRO/Synkim/internal/config"
	"github.com/alexredboyPRO/Synkim/internal/domain"
	"github.com/alexredboyPRO/Synkim/internal/hub"
	"github.com/alexredboyPRO/Synkim/pkg/log"
)

type syncService struct {
	hub          *hub.Hub
	store        RoomStore
	defaultMedia domain.MediaRef
	cfg          config.RoomsConfig

	// Serializes read-modify-write of room state. The relay is the
	// single mutation point per room; arrival order here is the
	// authoritative event order.
	mu sync.Mutex

	stopGC chan struct{}
}

func NewSyncService(h *hub.Hub, store RoomStore, cfg config.RoomsConfig) SyncService {
	defaultMedia, err := domain.ParseMediaRef(cfg.DefaultMedia)
	if err != nil {
		l := log.L()
		l.Warn().Str(log.FieldMedia, cfg.DefaultMedia).Msg("invalid default media, rooms start empty")
	}
	return &syncService{
		hub:          h,
		store:        store,
		defaultMedia: defaultMedia,
		cfg:          cfg,
		stopGC:       make(chan struct{}),
	}
}

// HandleJoin registers room membership and unicasts the current room
// state to the joining client only, so a late joiner sees where everyone
// else is. A duplicate join on a live connection is a no-op: the
// snapshot is sent exactly once per membership.
func (s *syncService) HandleJoin(ctx context.Context, c *hub.Client, roomID string) error {
	if roomID == "" {
		roomID = domain.DefaultRoomID
	}

	if current := c.Session.CurrentRoom(); current != "" && current != roomID {
		s.leaveInternal(ctx, c)
	}

	joined := s.hub.JoinRoom(c, roomID)
	c.Session.JoinRoom(roomID)
	if !joined {
		return nil
	}

	state, err := s.roomState(ctx, roomID)
	if err != nil {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "Failed to load room state"))
	}

	return c.SendMessage(state.Snapshot())
}

// HandleIntent validates membership, applies the intent to the room's
// authoritative state, and relays the original payload to every other
// member. The sender is always excluded from the fan-out.
func (s *syncService) HandleIntent(ctx context.Context, c *hub.Client, intent *domain.Intent, raw []byte) error {
	if !c.Session.IsInRoom() {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotInRoom, "Not in a room"))
	}

	roomID := c.Session.CurrentRoom()
	if !s.hub.IsMember(c.ID, roomID) {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotInRoom, "Not in a room"))
	}

	if intent.Media.IsZero() {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Intent carries no media reference"))
	}

	s.mu.Lock()
	state, err := s.roomState(ctx, roomID)
	if err == nil {
		state.ApplyIntent(intent, time.Now())
		err = s.store.Save(ctx, state)
	}
	s.mu.Unlock()
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to apply intent")
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "Failed to apply intent"))
	}

	l := log.Ctx(ctx)
	l.Debug().
		Str(log.FieldRoomID, roomID).
		Str(log.FieldClientID, c.ID).
		Str(log.FieldEvent, intent.Type).
		Str(log.FieldMedia, intent.Media.String()).
		Float64(log.FieldPosition, intent.Position).
		Msg("intent applied")

	s.hub.BroadcastRawToRoom(roomID, raw, c.ID)
	return nil
}

func (s *syncService) HandleLeave(ctx context.Context, c *hub.Client) error {
	if !c.Session.IsInRoom() {
		return nil
	}
	return s.leaveInternal(ctx, c)
}

func (s *syncService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	if !c.Session.IsInRoom() {
		return nil
	}
	return s.leaveInternal(ctx, c)
}

func (s *syncService) leaveInternal(ctx context.Context, c *hub.Client) error {
	roomID := c.Session.CurrentRoom()
	if roomID == "" {
		return nil
	}

	s.hub.LeaveRoom(c, roomID)
	c.Session.LeaveRoom()

	// Room state is kept; remaining members stay authoritative and the
	// idle sweep reclaims abandoned rooms.
	return nil
}

// RoomState exposes a room's current state for the inspection endpoint.
func (s *syncService) RoomState(ctx context.Context, roomID string) (*domain.RoomState, error) {
	return s.store.Get(ctx, roomID)
}

// roomState fetches a room's state, lazily creating it on first use.
func (s *syncService) roomState(ctx context.Context, roomID string) (*domain.RoomState, error) {
	state, err := s.store.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = domain.NewRoomState(roomID, s.defaultMedia)
		if err := s.store.Save(ctx, state); err != nil {
			return nil, err
		}
		l := log.Ctx(ctx)
		l.Info().Str(log.FieldRoomID, roomID).Str(log.FieldMedia, state.Media.String()).Msg("room created")
	}
	return state, nil
}

// Start launches the idle-room sweep.
func (s *syncService) Start(ctx context.Context) error {
	go s.gcLoop(ctx)
	return nil
}

func (s *syncService) Stop() error {
	close(s.stopGC)
	return nil
}

// gcLoop periodically deletes rooms that have had no state update within
// the idle window and have no connected members, bounding memory growth
// as rooms accumulate.
func (s *syncService) gcLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepIdleRooms(ctx)
		case <-s.stopGC:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *syncService) sweepIdleRooms(ctx context.Context) {
	states, err := s.store.List(ctx)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("room sweep: list failed")
		return
	}

	now := time.Now()
	for _, state := range states {
		if now.Sub(state.UpdatedAt) < s.cfg.IdleTimeout {
			continue
		}
		if s.hub.RoomClientCount(state.RoomID) > 0 {
			continue
		}
		if err := s.store.Delete(ctx, state.RoomID); err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldRoomID, state.RoomID).Msg("room sweep: delete failed")
			continue
		}
		l := log.L()
		l.Info().Str(log.FieldRoomID, state.RoomID).Msg("idle room deleted")
	}
}
