package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	appinv "github.com/shopstock/backend/internal/application/inventory"
)

// InMemorySummaryCache is a process-local summary cache used for
// single-instance deployments and tests
type InMemorySummaryCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*summaryEntry
	ttl     time.Duration
	now     func() time.Time
}

type summaryEntry struct {
	summary   *appinv.ProductResponse
	expiresAt time.Time
}

// NewInMemorySummaryCache creates a new in-memory summary cache
func NewInMemorySummaryCache(ttl time.Duration) *InMemorySummaryCache {
	if ttl <= 0 {
		ttl = defaultSummaryTTL
	}
	return &InMemorySummaryCache{
		entries: make(map[uuid.UUID]*summaryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetProduct fetches a cached product summary
func (c *InMemorySummaryCache) GetProduct(_ context.Context, productID uuid.UUID) (*appinv.ProductResponse, bool) {
	c.mu.RLock()
	entry, ok := c.entries[productID]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, productID)
		c.mu.Unlock()
		return nil, false
	}
	return entry.summary, true
}

// SetProduct stores a product summary with the configured TTL
func (c *InMemorySummaryCache) SetProduct(_ context.Context, summary *appinv.ProductResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[summary.ID] = &summaryEntry{
		summary:   summary,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Invalidate removes a product summary from the cache
func (c *InMemorySummaryCache) Invalidate(_ context.Context, productID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, productID)
}

// Len returns the number of cached entries
func (c *InMemorySummaryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemorySummaryCache implements SummaryCache
var _ appinv.SummaryCache = (*InMemorySummaryCache)(nil)
