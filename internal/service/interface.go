package service

import (
	"context"

	"github.com/alexredboyPRO/Synkim/internal/domain"
	"github.com/alexredboyPRO/Synkim/internal/hub"
)

// SyncService applies playback intents to authoritative room state and
// fans them out to the other members of the room.
type SyncService interface {
	HandleJoin(ctx context.Context, client *hub.Client, roomID string) error
	HandleIntent(ctx context.Context, client *hub.Client, intent *domain.Intent, raw []byte) error
	HandleLeave(ctx context.Context, client *hub.Client) error
	HandleDisconnect(ctx context.Context, client *hub.Client) error
	RoomState(ctx context.Context, roomID string) (*domain.RoomState, error)
	Start(ctx context.Context) error
	Stop() error
}
