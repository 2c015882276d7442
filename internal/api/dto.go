package api

import (
	"time"

	"github.com/rillfeed/rill/internal/domain"
)

// feedDTO mirrors the server's feed JSON.
type feedDTO struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	SiteURL   string    `json:"site_url"`
	FeedURL   string    `json:"feed_url"`
	CheckedAt time.Time `json:"checked_at"`
	Category  *struct {
		Title string `json:"title"`
	} `json:"category"`
}

// enclosureDTO mirrors the server's enclosure JSON.
type enclosureDTO struct {
	ID            int64  `json:"id"`
	URL           string `json:"url"`
	MimeType      string `json:"mime_type"`
	Size          int64  `json:"size"`
	MediaDuration int    `json:"media_duration"`
}

// entryDTO mirrors the server's entry JSON.
type entryDTO struct {
	ID          int64          `json:"id"`
	FeedID      int64          `json:"feed_id"`
	Title       string         `json:"title"`
	URL         string         `json:"url"`
	Author      string         `json:"author"`
	Content     string         `json:"content"`
	PublishedAt time.Time      `json:"published_at"`
	Status      string         `json:"status"`
	Starred     bool           `json:"starred"`
	Enclosures  []enclosureDTO `json:"enclosures"`
	Feed        *struct {
		Title string `json:"title"`
	} `json:"feed"`
}

// entriesResponse is the envelope around entry listings.
type entriesResponse struct {
	Total   int        `json:"total"`
	Entries []entryDTO `json:"entries"`
}

// feedCountersResponse maps feed id (as string) to unread count.
type feedCountersResponse struct {
	Unreads map[string]int `json:"unreads"`
}

func (f feedDTO) toDomain() domain.Feed {
	feed := domain.Feed{
		ID:        f.ID,
		Title:     f.Title,
		SiteURL:   f.SiteURL,
		FeedURL:   f.FeedURL,
		CheckedAt: f.CheckedAt,
	}
	if f.Category != nil {
		feed.Category = f.Category.Title
	}
	return feed
}

func (e entryDTO) toDomain() domain.Entry {
	entry := domain.Entry{
		ID:          e.ID,
		FeedID:      e.FeedID,
		Title:       e.Title,
		URL:         e.URL,
		Author:      e.Author,
		Content:     e.Content,
		PublishedAt: e.PublishedAt,
		Read:        e.Status == "read",
		Starred:     e.Starred,
	}
	if e.Feed != nil {
		entry.FeedTitle = e.Feed.Title
	}
	for _, enc := range e.Enclosures {
		entry.Enclosures = append(entry.Enclosures, domain.Enclosure{
			ID:              enc.ID,
			URL:             enc.URL,
			MimeType:        enc.MimeType,
			Size:            enc.Size,
			DurationSeconds: enc.MediaDuration,
		})
	}
	return entry
}
