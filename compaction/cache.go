package compaction

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SummaryCache stores resolved summary texts keyed by content hash.
// Entries are written once and never mutated; a last-writer-wins race
// between two in-flight identical computations is acceptable because both
// writers hold equivalent content.
type SummaryCache interface {
	// Get returns the cached summary for the hash, if present.
	Get(hash string) (string, bool)

	// Add stores a summary under the hash. Adding an existing key is a no-op.
	Add(hash, summary string)

	// Stats returns a snapshot of cache statistics.
	Stats() CacheStats
}

// CacheStats is an operational snapshot of a summary cache.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
	Capacity  int
}

// HitRate returns the fraction of lookups served from the cache.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// LRUSummaryCache is a bounded, process-wide summary cache. It is safe
// for concurrent use.
type LRUSummaryCache struct {
	entries  *lru.Cache[string, string]
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewLRUSummaryCache creates a summary cache with the given capacity.
func NewLRUSummaryCache(capacity int) (*LRUSummaryCache, error) {
	c := &LRUSummaryCache{capacity: capacity}
	entries, err := lru.NewWithEvict(capacity, func(string, string) {
		c.evictions.Add(1)
	})
	if err != nil {
		return nil, WrapError("NewLRUSummaryCache", err)
	}
	c.entries = entries
	return c, nil
}

// Get returns the cached summary for the hash, if present.
func (c *LRUSummaryCache) Get(hash string) (string, bool) {
	summary, ok := c.entries.Get(hash)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return summary, ok
}

// Add stores a summary under the hash. Existing entries are left intact.
func (c *LRUSummaryCache) Add(hash, summary string) {
	c.entries.ContainsOrAdd(hash, summary)
}

// Stats returns a snapshot of cache statistics.
func (c *LRUSummaryCache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   c.entries.Len(),
		Capacity:  c.capacity,
	}
}
