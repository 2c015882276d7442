package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rillfeed/rill/internal/media"
	"github.com/rillfeed/rill/internal/service"
)

// Command factories for async operations

// LoadFeedsCmd loads the subscribed feed list
func LoadFeedsCmd(svc *service.FeedService, force bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		feeds, err := svc.GetFeeds(ctx, force)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading feeds"}
		}
		return FeedsLoadedMsg{Feeds: feeds}
	}
}

// LoadEntriesCmd loads one feed's entries (or the recent timeline for
// service.RecentFeedID)
func LoadEntriesCmd(svc *service.FeedService, feedID int64, force bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		entries, err := svc.GetEntries(ctx, feedID, force)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading entries"}
		}
		return EntriesLoadedMsg{Entries: entries, FeedID: feedID}
	}
}

// LoadSearchPoolCmd loads the recent timeline as the corpus for global
// search; the cache makes repeat opens cheap
func LoadSearchPoolCmd(svc *service.FeedService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		entries, err := svc.GetEntries(ctx, service.RecentFeedID, false)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading search entries"}
		}
		return SearchPoolMsg{Entries: entries}
	}
}

// HardRefreshCmd drops the cached lists for the current view and refetches.
// Unlike a plain refresh this also forgets the stale copies served as an
// offline fallback.
func HardRefreshCmd(svc *service.FeedService, feedID int64) tea.Cmd {
	return func() tea.Msg {
		svc.Invalidate(feedID)
		if feedID != service.RecentFeedID {
			svc.Invalidate(service.RecentFeedID)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		entries, err := svc.GetEntries(ctx, feedID, true)
		if err != nil {
			return ErrMsg{Err: err, Context: "refreshing entries"}
		}
		return EntriesLoadedMsg{Entries: entries, FeedID: feedID}
	}
}

// MarkReadCmd marks an entry read on the server
func MarkReadCmd(svc *service.FeedService, entryID, feedID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := svc.MarkRead(ctx, entryID, feedID); err != nil {
			return ErrMsg{Err: err, Context: "marking read"}
		}
		return EntryMarkedReadMsg{EntryID: entryID, FeedID: feedID}
	}
}

// PlayRecentCmd fetches the recent timeline and queues its playable audio
// entries, newest first
func PlayRecentCmd(svc *service.FeedService, audio *media.AudioEngine, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		entries, err := svc.GetEntries(ctx, service.RecentFeedID, false)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading recent entries"}
		}
		audio.PlayAllRecent(entries, limit)
		return nil
	}
}

// WaitForSessionCmd blocks on the observer channel and re-arms itself from
// Update after each delivery.
func WaitForSessionCmd(ch <-chan SessionUpdate) tea.Cmd {
	return func() tea.Msg {
		upd, ok := <-ch
		if !ok {
			return nil
		}
		return SessionMsg{Engine: upd.Engine, Session: upd.Session}
	}
}

// ExpireStatusCmd clears the status line after a delay
func ExpireStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return StatusExpiredMsg{ID: id}
	})
}
