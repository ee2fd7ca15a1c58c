// Package cache memoizes query results keyed by operation and arguments.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Key identifies a cached result.
type Key struct {
	Op   string
	Args string
}

func (k Key) String() string { return k.Op + "|" + k.Args }

// Entry is a cached value and the time it was stored.
type Entry struct {
	Value      any
	InsertedAt time.Time
}

// Stats are cumulative lookup counters.
type Stats struct {
	Hits   int64
	Misses int64
}

// Cache is a concurrency-safe map of results with an optional TTL.
// Errors are never stored.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group
	hits    atomic.Int64
	misses  atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache. A ttl of 0 keeps entries until invalidated.
func New(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[Key]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the live value for k.
func (c *Cache) Get(k Key) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[k]
	c.mu.RUnlock()
	if !ok || c.expired(e) {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return e.Value, true
}

// Put stores v under k.
func (c *Cache) Put(k Key, v any) {
	c.mu.Lock()
	c.entries[k] = Entry{Value: v, InsertedAt: c.now()}
	c.mu.Unlock()
}

// Load returns the cached value for k or calls fn to produce it. Concurrent
// loads of the same key share one call to fn. The shared call runs detached
// from any single caller's cancellation; each caller still stops waiting when
// its own ctx is done.
func (c *Cache) Load(ctx context.Context, k Key, fn func(context.Context) (any, error)) (any, error) {
	if v, ok := c.Get(k); ok {
		return v, nil
	}
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(k.String(), func() (any, error) {
		if v, ok := c.peek(k); ok {
			return v, nil
		}
		v, err := fn(loadCtx)
		if err != nil {
			return nil, err
		}
		c.Put(k, v)
		return v, nil
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops every entry for op and returns how many were removed.
func (c *Cache) Invalidate(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if k.Op == op {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// InvalidateAll empties the cache and returns how many entries were removed.
func (c *Cache) InvalidateAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[Key]Entry)
	return n
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// peek reads without touching the counters.
func (c *Cache) peek(k Key) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[k]
	c.mu.RUnlock()
	if !ok || c.expired(e) {
		return nil, false
	}
	return e.Value, true
}

func (c *Cache) expired(e Entry) bool {
	return c.ttl > 0 && c.now().Sub(e.InsertedAt) >= c.ttl
}
