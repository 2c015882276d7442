package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rillfeed/rill/internal/domain"
)

// fakeRepo counts calls and can be forced offline.
type fakeRepo struct {
	feeds      []domain.Feed
	entries    map[int64][]domain.Entry
	feedCalls  int
	entryCalls int
	markCalls  []int64
	err        error
}

func (f *fakeRepo) GetFeeds(ctx context.Context) ([]domain.Feed, error) {
	f.feedCalls++
	return f.feeds, f.err
}

func (f *fakeRepo) GetFeedEntries(ctx context.Context, feedID int64, limit int) ([]domain.Entry, error) {
	f.entryCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[feedID], nil
}

func (f *fakeRepo) GetRecentEntries(ctx context.Context, limit int) ([]domain.Entry, error) {
	f.entryCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[RecentFeedID], nil
}

func (f *fakeRepo) MarkEntryRead(ctx context.Context, entryID int64) error {
	f.markCalls = append(f.markCalls, entryID)
	return f.err
}

// memStore is a map-backed domain.Store for service tests.
type memStore struct {
	feeds   []domain.Feed
	hasFeed bool
	entries map[int64][]domain.Entry
	fresh   map[int64]bool
}

func newMemStore() *memStore {
	return &memStore{entries: map[int64][]domain.Entry{}, fresh: map[int64]bool{}}
}

func (m *memStore) GetFeeds() ([]domain.Feed, bool) { return m.feeds, m.hasFeed }
func (m *memStore) SaveFeeds(feeds []domain.Feed) error {
	m.feeds, m.hasFeed = feeds, true
	return nil
}
func (m *memStore) GetEntries(feedID int64) ([]domain.Entry, bool) {
	entries, ok := m.entries[feedID]
	return entries, ok
}
func (m *memStore) SaveEntries(feedID int64, entries []domain.Entry) error {
	m.entries[feedID] = entries
	m.fresh[feedID] = true
	return nil
}
func (m *memStore) IsFresh(feedID int64, maxAge int64) bool { return m.fresh[feedID] }
func (m *memStore) InvalidateFeed(feedID int64) {
	delete(m.entries, feedID)
	delete(m.fresh, feedID)
}
func (m *memStore) InvalidateAll() { *m = *newMemStore() }
func (m *memStore) Close() error   { return nil }

func TestFeedService(t *testing.T) {
	ctx := context.Background()

	t.Run("entries served from fresh cache", func(t *testing.T) {
		repo := &fakeRepo{entries: map[int64][]domain.Entry{7: {{ID: 1, FeedID: 7}}}}
		store := newMemStore()
		svc := NewFeedService(repo, store, 50, 300, nil)

		if _, err := svc.GetEntries(ctx, 7, false); err != nil {
			t.Fatalf("first GetEntries: %v", err)
		}
		if _, err := svc.GetEntries(ctx, 7, false); err != nil {
			t.Fatalf("second GetEntries: %v", err)
		}
		if repo.entryCalls != 1 {
			t.Errorf("entryCalls = %d, want 1 (second read cached)", repo.entryCalls)
		}
	})

	t.Run("force bypasses the cache", func(t *testing.T) {
		repo := &fakeRepo{entries: map[int64][]domain.Entry{7: {{ID: 1, FeedID: 7}}}}
		store := newMemStore()
		svc := NewFeedService(repo, store, 50, 300, nil)

		svc.GetEntries(ctx, 7, false)
		svc.GetEntries(ctx, 7, true)
		if repo.entryCalls != 2 {
			t.Errorf("entryCalls = %d, want 2", repo.entryCalls)
		}
	})

	t.Run("stale cache served when the server is down", func(t *testing.T) {
		repo := &fakeRepo{entries: map[int64][]domain.Entry{7: {{ID: 1, FeedID: 7}}}}
		store := newMemStore()
		svc := NewFeedService(repo, store, 50, 300, nil)

		svc.GetEntries(ctx, 7, false)
		store.fresh[7] = false // stale but present
		repo.err = domain.ErrServerOffline

		entries, err := svc.GetEntries(ctx, 7, false)
		if err != nil {
			t.Fatalf("expected stale fallback, got %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("entries = %+v", entries)
		}
	})

	t.Run("error surfaces when nothing is cached", func(t *testing.T) {
		repo := &fakeRepo{err: domain.ErrServerOffline}
		svc := NewFeedService(repo, newMemStore(), 50, 300, nil)
		if _, err := svc.GetEntries(ctx, 7, false); !errors.Is(err, domain.ErrServerOffline) {
			t.Errorf("expected ErrServerOffline, got %v", err)
		}
	})

	t.Run("invalidate drops the cached list entirely", func(t *testing.T) {
		repo := &fakeRepo{entries: map[int64][]domain.Entry{7: {{ID: 1, FeedID: 7}}}}
		store := newMemStore()
		svc := NewFeedService(repo, store, 50, 300, nil)

		svc.GetEntries(ctx, 7, false)
		svc.Invalidate(7)

		if _, ok := store.GetEntries(7); ok {
			t.Fatal("cached entries survived Invalidate")
		}

		// Unlike a plain force refresh, even the stale offline fallback
		// is gone after an invalidate.
		repo.err = domain.ErrServerOffline
		if _, err := svc.GetEntries(ctx, 7, false); !errors.Is(err, domain.ErrServerOffline) {
			t.Errorf("expected ErrServerOffline, got %v", err)
		}
	})

	t.Run("mark read patches cached lists", func(t *testing.T) {
		repo := &fakeRepo{entries: map[int64][]domain.Entry{
			7:            {{ID: 1, FeedID: 7}},
			RecentFeedID: {{ID: 1, FeedID: 7}},
		}}
		store := newMemStore()
		svc := NewFeedService(repo, store, 50, 300, nil)
		svc.GetEntries(ctx, 7, false)
		svc.GetEntries(ctx, RecentFeedID, false)

		if err := svc.MarkRead(ctx, 1, 7); err != nil {
			t.Fatalf("MarkRead: %v", err)
		}
		if !store.entries[7][0].Read {
			t.Error("feed list not patched")
		}
		if !store.entries[RecentFeedID][0].Read {
			t.Error("recent list not patched")
		}
	})
}

func TestSearchEntries(t *testing.T) {
	entries := []domain.Entry{
		{ID: 1, Title: "Understanding Go generics", FeedTitle: "Go Blog"},
		{ID: 2, Title: "Rust borrow checker deep dive", FeedTitle: "Systems Weekly"},
		{ID: 3, Title: "Generics in practice", FeedTitle: "Go Time"},
	}

	t.Run("ranks title matches first", func(t *testing.T) {
		got := SearchEntries("generics", entries)
		if len(got) != 2 {
			t.Fatalf("got %d results, want 2", len(got))
		}
		for _, e := range got {
			if e.ID == 2 {
				t.Error("unrelated entry matched")
			}
		}
	})

	t.Run("falls back to feed title", func(t *testing.T) {
		got := SearchEntries("go time", entries)
		if len(got) == 0 || got[0].ID != 3 {
			t.Errorf("results = %+v", got)
		}
	})

	t.Run("empty query returns nil", func(t *testing.T) {
		if got := SearchEntries("   ", entries); got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})
}
