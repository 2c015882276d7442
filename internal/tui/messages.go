package tui

import (
	"github.com/rillfeed/rill/internal/domain"
	"github.com/rillfeed/rill/internal/media"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// FeedsLoadedMsg signals that the feed list has been loaded
type FeedsLoadedMsg struct {
	Feeds []domain.Feed
}

// EntriesLoadedMsg signals that a feed's entries have been loaded
type EntriesLoadedMsg struct {
	Entries []domain.Entry
	FeedID  int64
}

// SearchPoolMsg carries the cross-feed entry set global search runs over
type SearchPoolMsg struct {
	Entries []domain.Entry
}

// EntryMarkedReadMsg signals that an entry was marked read on the server
type EntryMarkedReadMsg struct {
	EntryID int64
	FeedID  int64
}

// SessionMsg carries a playback session snapshot from one engine
type SessionMsg struct {
	Engine  string
	Session media.Session
}

// StatusExpiredMsg clears a transient status line message
type StatusExpiredMsg struct {
	ID int
}
