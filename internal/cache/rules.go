// Package cache provides a small TTL cache for coupon rules on the evaluate
// hot path. Commit-path lookups bypass it entirely.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopverse/checkout/internal/domain/coupon"
)

type entry struct {
	coupon  coupon.Coupon
	expires time.Time
}

// Rules wraps a coupon.Repository with a read-through TTL cache. Only
// successful lookups are cached; misses and errors always reach the backing
// repository, and ledger counts are never cached so limit checks stay live.
type Rules struct {
	inner coupon.Repository
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

// NewRules creates a rules cache in front of inner with the given TTL.
func NewRules(inner coupon.Repository, ttl time.Duration) *Rules {
	return &Rules{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

var _ coupon.Repository = (*Rules)(nil)

// FindByCode returns the cached coupon for the code when fresh, falling back
// to the backing repository and caching the result.
func (r *Rules) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	key := strings.ToUpper(code)

	r.mu.RLock()
	e, ok := r.entries[key]
	r.mu.RUnlock()

	if ok && r.now().Before(e.expires) {
		c := e.coupon
		return &c, nil
	}

	c, err := r.inner.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.entries[key] = entry{coupon: *c, expires: r.now().Add(r.ttl)}
	r.mu.Unlock()

	return c, nil
}

// invalidate drops one code from the cache.
func (r *Rules) invalidate(code string) {
	r.mu.Lock()
	delete(r.entries, strings.ToUpper(code))
	r.mu.Unlock()
}
