package domain

import "time"

// RoomState is the authoritative playback state of a room. It is owned
// and mutated exclusively by the relay; clients only submit intents.
type RoomState struct {
	RoomID    string    `json:"room_id"`
	Media     MediaRef  `json:"media"`
	Playing   bool      `json:"playing"`
	Position  float64   `json:"position"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRoomState creates the state a freshly created room starts with:
// the deployment's default media, paused at zero.
func NewRoomState(roomID string, defaultMedia MediaRef) *RoomState {
	return &RoomState{
		RoomID:    roomID,
		Media:     defaultMedia,
		Playing:   false,
		Position:  0,
		UpdatedAt: time.Now(),
	}
}

// ApplyIntent mutates the state per intent semantics. A media change is
// a hard reset: playing=false and position=0, unconditionally. An intent
// whose media differs from the loaded media is itself a media change,
// never a partial position update. Writes are last-writer-wins; arrival
// order at the relay is the serialization order.
func (s *RoomState) ApplyIntent(ev *Intent, now time.Time) {
	if ev.Type == MsgTypeChangeMedia || !ev.Media.Equal(s.Media) {
		s.Media = ev.Media
		s.Playing = false
		s.Position = 0
		s.UpdatedAt = now
		return
	}

	switch ev.Type {
	case MsgTypePlay:
		s.Playing = true
		s.Position = ev.Position
	case MsgTypePause:
		s.Playing = false
		s.Position = ev.Position
	case MsgTypeSync:
		// Advisory: position only, never flips the play state.
		s.Position = ev.Position
	default:
		return
	}
	s.UpdatedAt = now
}

// Snapshot renders the state as the message unicast to a joining client.
func (s *RoomState) Snapshot() *RoomStateMessage {
	return &RoomStateMessage{
		Type:     MsgTypeRoomState,
		RoomID:   s.RoomID,
		Media:    s.Media,
		Playing:  s.Playing,
		Position: s.Position,
	}
}
