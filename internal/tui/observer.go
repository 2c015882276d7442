package tui

import "github.com/rillfeed/rill/internal/media"

// SessionUpdate tags a session snapshot with the engine it came from.
type SessionUpdate struct {
	Engine  string
	Session media.Session
}

// ChannelObserver adapts media.SessionObserver to a channel for Bubble Tea.
type ChannelObserver struct {
	engine string
	ch     chan<- SessionUpdate
}

// NewChannelObserver creates a new channel-based observer for one engine.
func NewChannelObserver(engine string, ch chan<- SessionUpdate) *ChannelObserver {
	return &ChannelObserver{engine: engine, ch: ch}
}

// OnSession sends the snapshot to the channel (non-blocking if full).
func (o *ChannelObserver) OnSession(s media.Session) {
	select {
	case o.ch <- SessionUpdate{Engine: o.engine, Session: s}:
	default: // Non-blocking if channel full
	}
}
