package cache

import (
	"context"
	"sync"
	"time"

	"retailops/internal/domain/reports/revenue"
)

var (
	_ revenue.Cache = (*MemoryRevenueCache)(nil)
	_ revenue.Cache = NoopRevenueCache{}
)

type memoryEntry struct {
	report  *revenue.Report
	expires time.Time
}

// MemoryRevenueCache keeps reports in process until TTL or Invalidate.
type MemoryRevenueCache struct {
	mu      sync.RWMutex
	gen     int64
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryRevenueCache creates an in-process cache. ttl <= 0 never expires.
func NewMemoryRevenueCache(ttl time.Duration) *MemoryRevenueCache {
	return &MemoryRevenueCache{entries: map[string]memoryEntry{}, ttl: ttl, now: time.Now}
}

// Get implements revenue.Cache.
func (c *MemoryRevenueCache) Get(_ context.Context, key string) (*revenue.Report, int64, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	gen := c.gen
	c.mu.RUnlock()
	if !ok {
		return nil, gen, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, gen, nil
	}
	return e.report, gen, nil
}

// Set implements revenue.Cache. A write for an old generation is dropped.
func (c *MemoryRevenueCache) Set(_ context.Context, key string, gen int64, report *revenue.Report) error {
	if report == nil {
		return nil
	}
	e := memoryEntry{report: report}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.entries[key] = e
	return nil
}

// Invalidate drops every entry and moves to a new generation.
func (c *MemoryRevenueCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.gen++
	c.entries = map[string]memoryEntry{}
	c.mu.Unlock()
	return nil
}

// NoopRevenueCache never stores anything.
type NoopRevenueCache struct{}

// Get implements revenue.Cache.
func (NoopRevenueCache) Get(context.Context, string) (*revenue.Report, int64, error) {
	return nil, 0, nil
}

// Set implements revenue.Cache.
func (NoopRevenueCache) Set(context.Context, string, int64, *revenue.Report) error { return nil }

// Invalidate implements revenue.Cache.
func (NoopRevenueCache) Invalidate(context.Context) error { return nil }
