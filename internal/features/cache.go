package features

import (
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/ElMALIHI/footballai/internal/models"
)

// CacheKey identifies one cached team feature set. Keys carry the as-of date
// (day granularity) so historical extraction with different cut-offs never
// collides; within one day, entries are invalidated by TTL only, which is the
// documented staleness window.
type CacheKey struct {
	TeamID      int64
	Season      string
	Perspective string
	AsOfDay     string
}

// String returns the flat cache key representation.
func (k CacheKey) String() string {
	return fmt.Sprintf("%d:%s:%s:%s", k.TeamID, k.Season, k.Perspective, k.AsOfDay)
}

// Cache is a TTL-bounded, concurrency-safe cache for computed feature
// vectors. A race between a write and a read may return a slightly stale
// value within the validity window; that trade-off is accepted because
// recomputation is expensive and new match data arrives slowly.
type Cache struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewCache creates a feature cache with the given TTL. Expired entries are
// swept at twice the TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Get returns the cached vector for the key, or nil on miss.
func (c *Cache) Get(key CacheKey) models.FeatureVector {
	if v, found := c.cache.Get(key.String()); found {
		if fv, ok := v.(models.FeatureVector); ok {
			CacheHitsTotal.Inc()
			return fv
		}
	}
	CacheMissesTotal.Inc()
	return nil
}

// Set stores a vector under the key for the cache TTL.
func (c *Cache) Set(key CacheKey, fv models.FeatureVector) {
	c.cache.Set(key.String(), fv, c.ttl)
}

// Clear flushes all entries.
func (c *Cache) Clear() {
	c.cache.Flush()
}

// ItemCount returns the number of live entries.
func (c *Cache) ItemCount() int {
	return c.cache.ItemCount()
}
