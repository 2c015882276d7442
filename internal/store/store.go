package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/rillfeed/rill/internal/domain"
)

// Bucket names
var (
	bucketFeeds   = []byte("feeds")
	bucketEntries = []byte("entries")
)

// FeedStore implements domain.Store using BoltDB with an in-memory
// promotion layer for hot-path reads. With an empty cache dir it runs
// memory-only.
type FeedStore struct {
	db *bolt.DB
	mu sync.RWMutex // protects the memory cache

	cache map[string][]byte

	// now is swappable for freshness tests.
	now func() time.Time
}

// NewFeedStore opens (or creates) the cache database under baseCacheDir,
// namespaced by server URL so switching servers never mixes caches.
func NewFeedStore(baseCacheDir, serverURL string) (*FeedStore, error) {
	if baseCacheDir == "" {
		return &FeedStore{cache: make(map[string][]byte), now: time.Now}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "rill.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketFeeds, bucketEntries} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &FeedStore{db: db, cache: make(map[string][]byte), now: time.Now}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *FeedStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *FeedStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to the memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *FeedStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *FeedStore) deletePrefix(bucket []byte, prefix string) {
	s.mu.Lock()
	cachePrefix := string(bucket) + ":" + prefix
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		prefixBytes := []byte(prefix)
		for k, _ := c.Seek(prefixBytes); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Feeds ===

func (s *FeedStore) GetFeeds() ([]domain.Feed, bool) {
	var feeds []domain.Feed
	ok := s.get(bucketFeeds, "list", &feeds)
	return feeds, ok
}

func (s *FeedStore) SaveFeeds(feeds []domain.Feed) error {
	return s.set(bucketFeeds, "list", feeds)
}

// === Entries (keyed by feed; feed id 0 holds the all-feeds recent list) ===

// feedPrefix keys everything belonging to one feed. The trailing colon
// keeps feed 1 from shadowing feed 10 on prefix scans.
func feedPrefix(feedID int64) string {
	return "feed:" + strconv.FormatInt(feedID, 10) + ":"
}

func (s *FeedStore) GetEntries(feedID int64) ([]domain.Entry, bool) {
	var entries []domain.Entry
	ok := s.get(bucketEntries, feedPrefix(feedID)+"entries", &entries)
	return entries, ok
}

func (s *FeedStore) SaveEntries(feedID int64, entries []domain.Entry) error {
	if err := s.set(bucketEntries, feedPrefix(feedID)+"entries", entries); err != nil {
		return err
	}
	// Timestamp lives beside the data for freshness checks.
	return s.set(bucketEntries, feedPrefix(feedID)+"ts", s.now().Unix())
}

// IsFresh reports whether the cached entry list for the feed was saved
// within the last maxAgeSeconds.
func (s *FeedStore) IsFresh(feedID int64, maxAgeSeconds int64) bool {
	var savedAt int64
	if !s.get(bucketEntries, feedPrefix(feedID)+"ts", &savedAt) {
		return false
	}
	return s.now().Unix()-savedAt <= maxAgeSeconds
}

// === Invalidation ===

func (s *FeedStore) InvalidateFeed(feedID int64) {
	s.deletePrefix(bucketEntries, feedPrefix(feedID))
}

func (s *FeedStore) InvalidateAll() {
	s.deletePrefix(bucketEntries, "feed:")
	s.deletePrefix(bucketFeeds, "list")
}
