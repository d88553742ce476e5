package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ignatzorin/career-compass/internal/goroutine"
)

// CacheService provides in-memory caching with TTL and invalidation support.
type CacheService struct {
	mu    sync.RWMutex
	cache map[string]*cacheEntry
	// generation растёт при каждой инвалидации.
	generation uint64

	stop     chan struct{}
	stopOnce sync.Once
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// NewCacheService creates a new cache service.
func NewCacheService() *CacheService {
	cs := &CacheService{
		cache: make(map[string]*cacheEntry),
		stop:  make(chan struct{}),
	}

	goroutine.SafeGo(cs.cleanup)

	return cs
}

// Close stops the background cleanup.
func (cs *CacheService) Close() {
	cs.stopOnce.Do(func() { close(cs.stop) })
}

// Get retrieves a value from cache.
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.cache[key]
	if !exists || time.Now().After(entry.expiresAt) {
		return nil, false
	}

	return entry.data, true
}

// Set stores a value in cache with TTL.
func (cs *CacheService) Set(key string, value interface{}, ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache[key] = &cacheEntry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes a key from cache.
func (cs *CacheService) Delete(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
}

// InvalidateByPrefix removes all keys with the given prefix.
func (cs *CacheService) InvalidateByPrefix(prefix string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.generation++
	for key := range cs.cache {
		if strings.HasPrefix(key, prefix) {
			delete(cs.cache, key)
		}
	}
}

// InvalidateListings drops every cached opportunity listing.
func (cs *CacheService) InvalidateListings() {
	cs.InvalidateByPrefix(listingCachePrefix)
}

// cleanup removes expired entries periodically.
func (cs *CacheService) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-cs.stop:
			return
		case <-ticker.C:
		}

		cs.mu.Lock()
		now := time.Now()
		for key, entry := range cs.cache {
			if now.After(entry.expiresAt) {
				delete(cs.cache, key)
			}
		}
		cs.mu.Unlock()
	}
}

const listingCachePrefix = "opportunities:list:"

// ListingCacheKey key for a search result keyed by the normalised filter.
func ListingCacheKey(filterKey string) string {
	return listingCachePrefix + filterKey
}

func (cs *CacheService) currentGeneration() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.generation
}

// setIfGeneration stores the value only if no invalidation happened since gen was read.
func (cs *CacheService) setIfGeneration(gen uint64, key string, value interface{}, ttl time.Duration) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.generation != gen {
		return false
	}
	cs.cache[key] = &cacheEntry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
	return true
}

// GetOrSet retrieves a value from cache or computes it if not found.
// Errors are not cached. A value computed while an invalidation ran is
// returned to the caller but not stored.
func (cs *CacheService) GetOrSet(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fn func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	if value, found := cs.Get(key); found {
		return value, nil
	}

	gen := cs.currentGeneration()
	value, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	cs.setIfGeneration(gen, key, value, ttl)

	return value, nil
}
