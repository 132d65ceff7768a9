package service

import (
	"context"
	"sync"

	"github.com/alexredboyPRO/Synkim/internal/domain"
)

// MemoryRoomStore is an in-memory implementation of RoomStore.
// Suitable for single-instance deployments.
type MemoryRoomStore struct {
	rooms map[string]*domain.RoomState
	mu    sync.RWMutex
}

func NewMemoryRoomStore() *MemoryRoomStore {
	return &MemoryRoomStore{
		rooms: make(map[string]*domain.RoomState),
	}
}

func (s *MemoryRoomStore) Save(ctx context.Context, state *domain.RoomState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation.
	stateCopy := *state
	s.rooms[state.RoomID] = &stateCopy
	return nil
}

func (s *MemoryRoomStore) Get(ctx context.Context, roomID string) (*domain.RoomState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.rooms[roomID]
	if !exists {
		return nil, nil
	}

	stateCopy := *state
	return &stateCopy, nil
}

func (s *MemoryRoomStore) Delete(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rooms, roomID)
	return nil
}

func (s *MemoryRoomStore) List(ctx context.Context) ([]*domain.RoomState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RoomState, 0, len(s.rooms))
	for _, state := range s.rooms {
		stateCopy := *state
		result = append(result, &stateCopy)
	}
	return result, nil
}

var _ RoomStore = (*MemoryRoomStore)(nil)
