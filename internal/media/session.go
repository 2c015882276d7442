package media

import "github.com/rillfeed/rill/internal/domain"

// TransportState is the playback state of one engine's session.
type TransportState int

const (
	StateIdle TransportState = iota
	StateLoading
	StatePlaying
	StatePaused
	StateEnded
	StateError
)

// String returns the string representation of the state.
func (s TransportState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// QueueItem pairs a resolved descriptor with the entry it came from.
type QueueItem struct {
	Descriptor Descriptor
	Entry      domain.EntryRef
}

// Session is a read-only snapshot of one engine's playback state, handed to
// observers for rendering. The queue slice is a copy; mutating it does not
// touch engine state.
type Session struct {
	Current  *QueueItem
	State    TransportState
	Position float64 // seconds, clamped to [0, Duration]
	Duration float64 // seconds, 0 when unknown
	Queue    []QueueItem

	// Err holds the load failure message while State is StateError.
	Err string
}

// Active reports whether the session holds media in any non-idle state.
func (s Session) Active() bool {
	return s.State != StateIdle
}

// SessionObserver receives session snapshots after every state mutation.
type SessionObserver interface {
	OnSession(s Session)
}
