package domain

import (
	"fmt"
	"time"
)

// Feed represents one subscribed source on the server.
type Feed struct {
	ID          int64
	Title       string
	SiteURL     string
	FeedURL     string
	Category    string
	UnreadCount int
	CheckedAt   time.Time
}

// Enclosure is a media attachment linked from an entry.
type Enclosure struct {
	ID       int64
	URL      string
	MimeType string
	Size     int64

	// DurationSeconds is the server-reported media duration, 0 when unknown.
	DurationSeconds int
}

// Entry is a single item fetched from a feed.
type Entry struct {
	ID          int64
	FeedID      int64
	FeedTitle   string
	Title       string
	URL         string
	Author      string
	Content     string
	PublishedAt time.Time
	Read        bool
	Starred     bool
	Enclosures  []Enclosure
}

// Ref returns a lightweight reference to the entry for playback bookkeeping.
func (e Entry) Ref() EntryRef {
	return EntryRef{EntryID: e.ID, FeedID: e.FeedID, Title: e.Title, FeedTitle: e.FeedTitle}
}

// EntryRef identifies the entry a queued media item came from without
// dragging the full entry body into playback state.
type EntryRef struct {
	EntryID   int64
	FeedID    int64
	Title     string
	FeedTitle string
}

// FormattedAge returns a compact relative age for list rendering.
func (e Entry) FormattedAge(now time.Time) string {
	d := now.Sub(e.PublishedAt)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	default:
		return e.PublishedAt.Format("Jan 2006")
	}
}
