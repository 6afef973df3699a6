package cache

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jdmsharpe/discord-plex/plex"
)

// MinScore is the minimum fuzzy-match score a title must reach to be
// returned from Search. Kept fairly high so unrelated titles stay out of
// conversational results.
const MinScore = 70

// Fetcher supplies the full library listing for a refresh
type Fetcher interface {
	GetAllMedia(ctx context.Context) ([]plex.MediaItem, error)
}

// snapshot is an immutable view of the library. A refresh builds a new
// snapshot and swaps the pointer; readers never observe partial state.
type snapshot struct {
	items   []plex.MediaItem
	byKey   map[string]plex.MediaItem
	builtAt time.Time
}

// Cache holds the latest library snapshot and answers fuzzy title queries
type Cache struct {
	fetcher  Fetcher
	interval time.Duration
	logger   zerolog.Logger

	refreshMu sync.Mutex
	snap      atomic.Pointer[snapshot]
}

// New creates an empty cache. Call Refresh or Run to populate it.
func New(fetcher Fetcher, interval time.Duration, logger zerolog.Logger) *Cache {
	return &Cache{
		fetcher:  fetcher,
		interval: interval,
		logger:   logger,
	}
}

// Refresh fetches the full library and atomically swaps in a new snapshot.
// On failure the previous snapshot is left untouched and still serves
// queries. Refreshes are serialized; concurrent callers wait their turn.
func (c *Cache) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	start := time.Now()
	items, err := c.fetcher.GetAllMedia(ctx)
	if err != nil {
		return fmt.Errorf("cache refresh failed: %w", err)
	}

	byKey := make(map[string]plex.MediaItem, len(items))
	for _, item := range items {
		byKey[item.RatingKey] = item
	}

	c.snap.Store(&snapshot{
		items:   items,
		byKey:   byKey,
		builtAt: time.Now(),
	})

	c.logger.Info().
		Int("items", len(items)).
		Dur("elapsed", time.Since(start)).
		Msg("Library cache refreshed")
	return nil
}

// Run performs an initial refresh and then refreshes on the configured
// interval until the context is cancelled. Refresh errors are logged and
// swallowed; stale results are preferred over none.
func (c *Cache) Run(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		c.logger.Error().Err(err).Msg("Initial cache refresh failed")
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug().Msg("Cache refresh loop stopped")
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.Error().Err(err).Msg("Background cache refresh failed")
			}
		}
	}
}

// SearchOption narrows a Search
type SearchOption func(*searchFilter)

type searchFilter struct {
	mediaType plex.MediaType
	library   string
}

// WithType restricts results to a single media type
func WithType(mt plex.MediaType) SearchOption {
	return func(f *searchFilter) {
		f.mediaType = mt
	}
}

// WithLibrary restricts results to a library section by title
func WithLibrary(library string) SearchOption {
	return func(f *searchFilter) {
		f.library = library
	}
}

// Search scores every cached title against the query and returns up to
// limit matches ordered by descending score, ties broken by snapshot
// insertion order. Titles are also scored with their year appended so
// "matrix 1999" finds the right film. An empty cache or a query no title
// matches at MinScore yields an empty slice.
func (c *Cache) Search(query string, limit int, opts ...SearchOption) []plex.MediaItem {
	snap := c.snap.Load()
	if snap == nil || len(snap.items) == 0 || limit <= 0 {
		return nil
	}

	var filter searchFilter
	for _, opt := range opts {
		opt(&filter)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	type scored struct {
		item  plex.MediaItem
		score int
		order int
	}

	var matches []scored
	for i, item := range snap.items {
		if filter.mediaType != "" && item.Type != filter.mediaType {
			continue
		}
		if filter.library != "" && !strings.EqualFold(item.Library, filter.library) {
			continue
		}

		score := tokenSetRatio(query, item.Title)
		if item.Year > 0 {
			withYear := item.Title + " " + strconv.Itoa(item.Year)
			if s := tokenSetRatio(query, withYear); s > score {
				score = s
			}
		}
		if score < MinScore {
			continue
		}
		matches = append(matches, scored{item: item, score: score, order: i})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].order < matches[j].order
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]plex.MediaItem, len(matches))
	for i, m := range matches {
		results[i] = m.item
	}
	return results
}

// Get returns the cached item for a rating key
func (c *Cache) Get(ratingKey string) (plex.MediaItem, bool) {
	snap := c.snap.Load()
	if snap == nil {
		return plex.MediaItem{}, false
	}
	item, ok := snap.byKey[ratingKey]
	return item, ok
}

// RecentlyAdded returns the most recently added cached items, optionally
// scoped to one library
func (c *Cache) RecentlyAdded(limit int, library string) []plex.MediaItem {
	snap := c.snap.Load()
	if snap == nil {
		return nil
	}

	items := make([]plex.MediaItem, 0, len(snap.items))
	for _, item := range snap.items {
		if library != "" && !strings.EqualFold(item.Library, library) {
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].AddedAt.After(items[j].AddedAt)
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// Libraries returns the sorted set of library names in the snapshot
func (c *Cache) Libraries() []string {
	snap := c.snap.Load()
	if snap == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var libraries []string
	for _, item := range snap.items {
		if _, ok := seen[item.Library]; !ok {
			seen[item.Library] = struct{}{}
			libraries = append(libraries, item.Library)
		}
	}
	sort.Strings(libraries)
	return libraries
}

// Len returns the number of cached items
func (c *Cache) Len() int {
	snap := c.snap.Load()
	if snap == nil {
		return 0
	}
	return len(snap.items)
}

// IsStale reports whether the snapshot is missing or older than the
// refresh interval
func (c *Cache) IsStale() bool {
	snap := c.snap.Load()
	if snap == nil {
		return true
	}
	return time.Since(snap.builtAt) > c.interval
}

// Stats summarizes the current snapshot
type Stats struct {
	TotalItems  int
	ByType      map[string]int
	ByLibrary   map[string]int
	LastRefresh time.Time
	Stale       bool
}

// Stats returns counts by type and library for the current snapshot
func (c *Cache) Stats() Stats {
	stats := Stats{
		ByType:    make(map[string]int),
		ByLibrary: make(map[string]int),
		Stale:     c.IsStale(),
	}

	snap := c.snap.Load()
	if snap == nil {
		return stats
	}

	stats.TotalItems = len(snap.items)
	stats.LastRefresh = snap.builtAt
	for _, item := range snap.items {
		stats.ByType[string(item.Type)]++
		stats.ByLibrary[item.Library]++
	}
	return stats
}
