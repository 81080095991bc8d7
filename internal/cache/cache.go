// Package cache keeps recently fetched price series keyed by symbol.
package cache

import (
	"context"
	"sync"
	"time"

	"InvestorHelper/internal/model"
)

// DefaultTTL is how long a fetched series stays fresh.
const DefaultTTL = time.Hour

// SeriesCache stores whole price series per symbol. Entries are replaced, never mutated.
type SeriesCache interface {
	// Get returns the entry for symbol if present and younger than the TTL.
	Get(ctx context.Context, symbol string) (model.CacheEntry, bool)
	// Put stores series for symbol, stamped with the current time.
	Put(ctx context.Context, symbol string, series []model.PricePoint) error
}

func fresh(entry model.CacheEntry, now time.Time, ttl time.Duration) bool {
	return now.Sub(entry.FetchedAt) < ttl
}

// MemoryCache is an in-process SeriesCache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]model.CacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) { c.now = now }
}

// NewMemoryCache creates an empty cache. A non-positive ttl selects DefaultTTL.
func NewMemoryCache(ttl time.Duration, opts ...MemoryOption) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &MemoryCache{
		entries: make(map[string]model.CacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, symbol string) (model.CacheEntry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[symbol]
	c.mu.RUnlock()
	if !ok || !fresh(entry, c.now(), c.ttl) {
		return model.CacheEntry{}, false
	}
	return entry, true
}

func (c *MemoryCache) Put(_ context.Context, symbol string, series []model.PricePoint) error {
	entry := model.CacheEntry{
		Symbol:    symbol,
		Series:    append([]model.PricePoint(nil), series...),
		FetchedAt: c.now(),
	}
	c.mu.Lock()
	c.entries[symbol] = entry
	c.mu.Unlock()
	return nil
}

// Sweep drops stale entries and returns how many were removed.
func (c *MemoryCache) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for symbol, entry := range c.entries {
		if !fresh(entry, now, c.ttl) {
			delete(c.entries, symbol)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, stale ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
