// Package player wraps an embeddable media player behind a small
// capability surface the sync engine drives. The primary implementation
// targets mpv via its JSON-IPC interface.
package player

import "github.com/alexredboyPRO/Synkim/internal/domain"

// State is the player's discrete playback state.
type State int

const (
	StateUnstarted State = iota
	StateEnded
	StatePlaying
	StatePaused
	StateBuffering
	StateCued
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateEnded:
		return "ended"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateCued:
		return "cued"
	default:
		return "unknown"
	}
}

// Event is a player notification: a state transition, or an error the
// player surfaced. Errors are reported, never thrown; the engine decides
// what to do with them.
type Event struct {
	State State
	Err   error
}

// Adapter is the capability surface the sync engine drives. Every
// command may fail softly (player not ready, process gone); callers are
// expected to log and carry on.
type Adapter interface {
	// Load replaces the current media with the given reference.
	Load(ref domain.MediaRef) error

	// Play resumes playback.
	Play() error

	// Pause suspends playback.
	Pause() error

	// Seek moves playback to an absolute position in seconds.
	Seek(seconds float64) error

	// Position returns the current playback position in seconds.
	Position() (float64, error)

	// State returns the last observed discrete playback state.
	State() State

	// Events delivers state transitions and player errors.
	Events() <-chan Event

	// Close shuts the player down and releases its resources.
	Close() error
}
