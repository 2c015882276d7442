package store

import (
	"testing"
	"time"

	"github.com/rillfeed/rill/internal/domain"
)

func testEntries(ids ...int64) []domain.Entry {
	var entries []domain.Entry
	for _, id := range ids {
		entries = append(entries, domain.Entry{ID: id, FeedID: 1, Title: "entry"})
	}
	return entries
}

func TestFeedStore(t *testing.T) {
	t.Run("round trip through disk", func(t *testing.T) {
		dir := t.TempDir()
		s, err := NewFeedStore(dir, "https://reader.example.com")
		if err != nil {
			t.Fatalf("NewFeedStore: %v", err)
		}
		if err := s.SaveFeeds([]domain.Feed{{ID: 1, Title: "Go Time"}}); err != nil {
			t.Fatalf("SaveFeeds: %v", err)
		}
		if err := s.SaveEntries(1, testEntries(10, 11)); err != nil {
			t.Fatalf("SaveEntries: %v", err)
		}
		s.Close()

		// Reopen: data must survive without the memory cache.
		s2, err := NewFeedStore(dir, "https://reader.example.com")
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		defer s2.Close()

		feeds, ok := s2.GetFeeds()
		if !ok || len(feeds) != 1 || feeds[0].Title != "Go Time" {
			t.Errorf("feeds after reopen: %+v ok=%v", feeds, ok)
		}
		entries, ok := s2.GetEntries(1)
		if !ok || len(entries) != 2 {
			t.Errorf("entries after reopen: %+v ok=%v", entries, ok)
		}
	})

	t.Run("memory-only mode", func(t *testing.T) {
		s, err := NewFeedStore("", "")
		if err != nil {
			t.Fatalf("NewFeedStore: %v", err)
		}
		defer s.Close()

		if _, ok := s.GetEntries(1); ok {
			t.Error("empty store reported a hit")
		}
		s.SaveEntries(1, testEntries(10))
		if entries, ok := s.GetEntries(1); !ok || len(entries) != 1 {
			t.Errorf("entries: %+v ok=%v", entries, ok)
		}
	})

	t.Run("freshness", func(t *testing.T) {
		s, _ := NewFeedStore("", "")
		defer s.Close()

		now := time.Unix(1000000, 0)
		s.now = func() time.Time { return now }

		if s.IsFresh(1, 300) {
			t.Error("unsaved feed reported fresh")
		}
		s.SaveEntries(1, testEntries(10))

		now = now.Add(2 * time.Minute)
		if !s.IsFresh(1, 300) {
			t.Error("recently saved feed reported stale")
		}
		now = now.Add(10 * time.Minute)
		if s.IsFresh(1, 300) {
			t.Error("old save reported fresh")
		}
	})

	t.Run("feed invalidation does not bleed across ids", func(t *testing.T) {
		s, _ := NewFeedStore("", "")
		defer s.Close()

		s.SaveEntries(1, testEntries(10))
		s.SaveEntries(10, testEntries(20))

		s.InvalidateFeed(1)
		if _, ok := s.GetEntries(1); ok {
			t.Error("feed 1 survived invalidation")
		}
		if _, ok := s.GetEntries(10); !ok {
			t.Error("feed 10 lost to feed 1's invalidation")
		}
	})

	t.Run("invalidate all", func(t *testing.T) {
		s, _ := NewFeedStore("", "")
		defer s.Close()

		s.SaveFeeds([]domain.Feed{{ID: 1}})
		s.SaveEntries(1, testEntries(10))
		s.InvalidateAll()

		if _, ok := s.GetFeeds(); ok {
			t.Error("feeds survived InvalidateAll")
		}
		if _, ok := s.GetEntries(1); ok {
			t.Error("entries survived InvalidateAll")
		}
	})
}
