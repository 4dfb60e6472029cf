package schema

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a fetched description is reused.
const DefaultCacheTTL = 5 * time.Minute

const cacheKey = "schema"

// Cached is a read-through TTL cache in front of another Describer.
// Concurrent misses share one fetch. Failed fetches are not cached.
type Cached struct {
	next Describer
	ttl  time.Duration
	now  func() time.Time

	mu        sync.RWMutex
	desc      Description
	expiresAt time.Time
	sf        singleflight.Group
}

// NewCached wraps next. A non-positive ttl uses DefaultCacheTTL.
func NewCached(next Describer, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{next: next, ttl: ttl, now: time.Now}
}

func (c *Cached) get() (Description, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.expiresAt.IsZero() || c.now().After(c.expiresAt) {
		return Description{}, false
	}
	return c.desc, true
}

func (c *Cached) set(d Description) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.desc = d
	c.expiresAt = c.now().Add(c.ttl)
}

// Invalidate drops the cached description.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.desc = Description{}
	c.expiresAt = time.Time{}
}

// Describe returns the cached description or fetches a fresh one.
func (c *Cached) Describe(ctx context.Context) (Description, error) {
	if d, ok := c.get(); ok {
		log.Debug().Msg("schema cache hit")
		return d, nil
	}

	v, err, _ := c.sf.Do(cacheKey, func() (interface{}, error) {
		// Another caller may have filled the cache while we waited.
		if d, ok := c.get(); ok {
			return d, nil
		}
		log.Debug().Msg("schema cache miss")
		d, err := c.next.Describe(ctx)
		if err != nil {
			return nil, err
		}
		c.set(d)
		return d, nil
	})
	if err != nil {
		return Description{}, err
	}
	return v.(Description), nil
}
