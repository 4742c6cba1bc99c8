// internal/app/system/datacache/datacache.go

// Package datacache holds the most recently computed dataset with an explicit
// expiry. Concurrent loads of an expired entry are collapsed into one.
package datacache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache stores a single value of type T for a fixed TTL.
type Cache[T any] struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	value    T
	storedAt time.Time
	has      bool

	group singleflight.Group
}

// New returns an empty cache. A ttl of zero or less means entries never
// expire on their own.
func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{ttl: ttl, now: time.Now}
}

// Get returns the cached value if present and not expired.
func (c *Cache[T]) Get() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.has || c.expiredLocked() {
		var zero T
		return zero, false
	}
	return c.value, true
}

// Peek returns the cached value even if it has expired.
func (c *Cache[T]) Peek() (T, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.storedAt, c.has
}

// Set replaces the entry and restarts its TTL.
func (c *Cache[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	c.storedAt = c.now()
	c.has = true
	c.mu.Unlock()
}

// Invalidate drops the entry so the next GetOrLoad reloads it.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	var zero T
	c.value = zero
	c.storedAt = time.Time{}
	c.has = false
	c.mu.Unlock()
}

// StoredAt reports when the current entry was set.
func (c *Cache[T]) StoredAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storedAt
}

// GetOrLoad returns the cached value, or calls load and caches its result when
// the entry is missing or expired. Callers arriving while a load is in flight
// share its result. A failed load leaves the cache untouched.
func (c *Cache[T]) GetOrLoad(ctx context.Context, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(); ok {
		return v, nil
	}
	return c.Reload(ctx, load)
}

// Reload calls load unconditionally and caches the result. When load fails,
// whatever value it returned is passed back with the error and the cache is
// left untouched.
func (c *Cache[T]) Reload(ctx context.Context, load func(context.Context) (T, error)) (T, error) {
	v, err, _ := c.group.Do("load", func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		c.Set(v)
		return v, nil
	})
	t, _ := v.(T)
	return t, err
}

func (c *Cache[T]) expiredLocked() bool {
	return c.ttl > 0 && c.now().Sub(c.storedAt) >= c.ttl
}
