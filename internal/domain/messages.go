package domain

import "time"

// WebSocket message types from client.
const (
	MsgTypeJoin  = "join"
	MsgTypeLeave = "leave"
	MsgTypePing  = "ping"
)

// Intent message types, relayed in both directions.
const (
	MsgTypePlay        = "play"
	MsgTypePause       = "pause"
	MsgTypeSync        = "sync"
	MsgTypeChangeMedia = "change_media"
)

// WebSocket message types to client.
const (
	MsgTypeRoomState = "room_state"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

// Error codes
const (
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeNotInRoom     = "NOT_IN_ROOM"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// DefaultRoomID is used when a join omits the room id.
const DefaultRoomID = "default"

// BaseMessage is the envelope every WebSocket message starts with.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

type JoinMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

// Intent is the canonical wire shape for all playback intents. Each
// intent is self-describing: it carries the media reference it is about,
// so a stale position update for different media is never misapplied.
type Intent struct {
	Type      string   `json:"type"`
	Media     MediaRef `json:"media"`
	Position  float64  `json:"position"`
	EmittedAt int64    `json:"emitted_at"`
}

// NewIntent builds an intent stamped with the current wall clock.
func NewIntent(msgType string, media MediaRef, position float64) *Intent {
	return &Intent{
		Type:      msgType,
		Media:     media,
		Position:  position,
		EmittedAt: time.Now().UnixMilli(),
	}
}

// IsIntentType reports whether a message type is a playback intent.
func IsIntentType(t string) bool {
	switch t {
	case MsgTypePlay, MsgTypePause, MsgTypeSync, MsgTypeChangeMedia:
		return true
	}
	return false
}

// Server -> Client messages

// RoomStateMessage is the snapshot unicast to a client on join.
type RoomStateMessage struct {
	Type     string   `json:"type"`
	RoomID   string   `json:"room_id"`
	Media    MediaRef `json:"media"`
	Playing  bool     `json:"playing"`
	Position float64  `json:"position"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}
