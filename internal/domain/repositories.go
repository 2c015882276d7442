package domain

import "context"

// FeedRepository provides network operations against the feed server.
type FeedRepository interface {
	// GetFeeds returns all subscribed feeds.
	GetFeeds(ctx context.Context) ([]Feed, error)

	// GetFeedEntries returns entries for one feed, newest first.
	GetFeedEntries(ctx context.Context, feedID int64, limit int) ([]Entry, error)

	// GetRecentEntries returns the newest entries across all feeds.
	GetRecentEntries(ctx context.Context, limit int) ([]Entry, error)

	// MarkEntryRead flags an entry as read on the server.
	MarkEntryRead(ctx context.Context, entryID int64) error
}

// Store handles the local cache of feeds and entries.
// The TUI reads through FeedService, which reads through Store.
type Store interface {
	GetFeeds() ([]Feed, bool)
	SaveFeeds(feeds []Feed) error

	GetEntries(feedID int64) ([]Entry, bool)
	SaveEntries(feedID int64, entries []Entry) error

	// IsFresh reports whether the cached entry list for the feed is newer
	// than maxAge.
	IsFresh(feedID int64, maxAgeSeconds int64) bool

	InvalidateFeed(feedID int64)
	InvalidateAll()

	Close() error
}
