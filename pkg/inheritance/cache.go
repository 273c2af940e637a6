package inheritance

import (
	"sync"

	"github.com/ksislv/silverstripe-framework/pkg/permissions"
)

type cacheKey struct {
	op       permissions.Operation
	memberID int64
}

// permissionCache accumulates resolved ID->bool results per
// (operation, member) pair. Entries are only ever added or dropped
// wholesale by clear; there is no eviction. The mutex makes the
// get/compute/put sequence safe when a resolver outlives one request.
type permissionCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]map[int64]bool
}

func newPermissionCache() *permissionCache {
	return &permissionCache{
		entries: make(map[cacheKey]map[int64]bool),
	}
}

// get returns the cached results for ids and the ids with no cached
// value yet.
func (c *permissionCache) get(op permissions.Operation, memberID int64, ids []int64) (map[int64]bool, []int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	resolved := make(map[int64]bool, len(ids))
	var missing []int64

	entry := c.entries[cacheKey{op: op, memberID: memberID}]
	for _, id := range ids {
		if allowed, ok := entry[id]; ok {
			resolved[id] = allowed
		} else {
			missing = append(missing, id)
		}
	}

	return resolved, missing
}

// put merges results into the entry for (op, memberID). The first writer
// wins for any ID already present; results are deterministic per store
// state, so later writers would agree anyway.
func (c *permissionCache) put(op permissions.Operation, memberID int64, results map[int64]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{op: op, memberID: memberID}
	entry, ok := c.entries[key]
	if !ok {
		entry = make(map[int64]bool, len(results))
		c.entries[key] = entry
	}

	for id, allowed := range results {
		if _, exists := entry[id]; !exists {
			entry[id] = allowed
		}
	}
}

func (c *permissionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[cacheKey]map[int64]bool)
}
