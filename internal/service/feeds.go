package service

import (
	"context"
	"log/slog"

	"github.com/rillfeed/rill/internal/domain"
)

// RecentFeedID is the pseudo feed id for the all-feeds recent timeline.
const RecentFeedID int64 = 0

// FeedService reads feeds and entries through the local cache, refetching
// from the server when the cache is stale or a refresh is forced.
type FeedService struct {
	repo   domain.FeedRepository
	store  domain.Store
	logger *slog.Logger

	entryLimit int
	maxAge     int64 // seconds a cached entry list stays fresh
}

// NewFeedService creates a new feed service.
func NewFeedService(repo domain.FeedRepository, store domain.Store, entryLimit int, maxAge int64, logger *slog.Logger) *FeedService {
	if logger == nil {
		logger = slog.Default()
	}
	if entryLimit <= 0 {
		entryLimit = 100
	}
	return &FeedService{
		repo:       repo,
		store:      store,
		logger:     logger,
		entryLimit: entryLimit,
		maxAge:     maxAge,
	}
}

// GetFeeds returns the subscribed feeds, from cache when possible.
func (s *FeedService) GetFeeds(ctx context.Context, force bool) ([]domain.Feed, error) {
	if !force {
		if feeds, ok := s.store.GetFeeds(); ok {
			s.logger.Debug("feeds cache hit", "count", len(feeds))
			return feeds, nil
		}
	}

	feeds, err := s.repo.GetFeeds(ctx)
	if err != nil {
		// Offline fallback: stale feeds beat no feeds.
		if cached, ok := s.store.GetFeeds(); ok {
			s.logger.Warn("serving stale feeds, refresh failed", "error", err)
			return cached, nil
		}
		return nil, err
	}

	if err := s.store.SaveFeeds(feeds); err != nil {
		s.logger.Warn("failed to cache feeds", "error", err)
	}
	s.logger.Info("loaded feeds", "count", len(feeds))
	return feeds, nil
}

// GetEntries returns one feed's entries newest first, from cache while
// fresh. RecentFeedID selects the combined recent timeline.
func (s *FeedService) GetEntries(ctx context.Context, feedID int64, force bool) ([]domain.Entry, error) {
	if !force && s.store.IsFresh(feedID, s.maxAge) {
		if entries, ok := s.store.GetEntries(feedID); ok {
			s.logger.Debug("entries cache hit", "feedID", feedID, "count", len(entries))
			return entries, nil
		}
	}

	var entries []domain.Entry
	var err error
	if feedID == RecentFeedID {
		entries, err = s.repo.GetRecentEntries(ctx, s.entryLimit)
	} else {
		entries, err = s.repo.GetFeedEntries(ctx, feedID, s.entryLimit)
	}
	if err != nil {
		if cached, ok := s.store.GetEntries(feedID); ok {
			s.logger.Warn("serving stale entries, refresh failed", "feedID", feedID, "error", err)
			return cached, nil
		}
		return nil, err
	}

	if err := s.store.SaveEntries(feedID, entries); err != nil {
		s.logger.Warn("failed to cache entries", "feedID", feedID, "error", err)
	}
	return entries, nil
}

// MarkRead flags the entry read on the server and patches the cached
// copies so lists re-render without a refetch.
func (s *FeedService) MarkRead(ctx context.Context, entryID, feedID int64) error {
	if err := s.repo.MarkEntryRead(ctx, entryID); err != nil {
		return err
	}
	s.patchRead(entryID, feedID)
	s.patchRead(entryID, RecentFeedID)
	return nil
}

func (s *FeedService) patchRead(entryID, feedID int64) {
	entries, ok := s.store.GetEntries(feedID)
	if !ok {
		return
	}
	for i := range entries {
		if entries[i].ID == entryID {
			entries[i].Read = true
			if err := s.store.SaveEntries(feedID, entries); err != nil {
				s.logger.Warn("failed to patch cached entry", "entryID", entryID, "error", err)
			}
			return
		}
	}
}

// Invalidate drops one feed's cached entries so the next read refetches.
func (s *FeedService) Invalidate(feedID int64) {
	s.store.InvalidateFeed(feedID)
}
