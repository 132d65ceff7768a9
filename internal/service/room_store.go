package service

import (
	"context"

	"github.com/alexredboyPRO/Synkim/internal/domain"
)

// RoomStore persists authoritative room playback state. The in-memory
// implementation is the default; the Redis one exists for deployments
// where the relay restarts must not lose room state.
type RoomStore interface {
	// Save stores or updates a room's state.
	Save(ctx context.Context, state *domain.RoomState) error

	// Get retrieves a room's state. Returns nil, nil when the room
	// does not exist.
	Get(ctx context.Context, roomID string) (*domain.RoomState, error)

	// Delete removes a room's state.
	Delete(ctx context.Context, roomID string) error

	// List returns the state of every known room.
	List(ctx context.Context) ([]*domain.RoomState, error)
}
