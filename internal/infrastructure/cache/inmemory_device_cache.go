package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// deviceEntry is a cached mapping with expiration
type deviceEntry struct {
	branchID  uuid.UUID
	expiresAt time.Time
}

// InMemoryDeviceBranchCache caches device-to-branch mappings in process
// memory. Suitable for single-instance deployments and tests; distributed
// deployments should use RedisDeviceBranchCache so reassignment is seen by
// every instance within one TTL.
type InMemoryDeviceBranchCache struct {
	mu      sync.RWMutex
	entries map[string]deviceEntry
	ttl     time.Duration
}

// NewInMemoryDeviceBranchCache creates a new in-memory cache
func NewInMemoryDeviceBranchCache(ttl time.Duration) *InMemoryDeviceBranchCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &InMemoryDeviceBranchCache{
		entries: make(map[string]deviceEntry),
		ttl:     ttl,
	}
}

// Get returns the cached branch for a device GUID
func (c *InMemoryDeviceBranchCache) Get(_ context.Context, guid string) (uuid.UUID, bool) {
	c.mu.RLock()
	e, ok := c.entries[guid]
	c.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return uuid.Nil, false
	}
	return e.branchID, true
}

// Set stores the branch for a device GUID
func (c *InMemoryDeviceBranchCache) Set(_ context.Context, guid string, branchID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Opportunistically drop expired entries so the map stays bounded by
	// the live device population.
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}

	c.entries[guid] = deviceEntry{branchID: branchID, expiresAt: now.Add(c.ttl)}
}
