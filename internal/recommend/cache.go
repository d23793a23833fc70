package recommend

import (
	"sync"
	"time"

	"github.com/hyperengineering/waypoint/internal/types"
)

type cacheEntry struct {
	recommendations []types.Recommendation
	expiresAt       time.Time
}

// cache holds ranked recommendation lists keyed by request fingerprint,
// with a secondary workflow-id index so feedback can invalidate every
// cached list that references a workflow without scanning all entries.
type cache struct {
	mu         sync.Mutex
	ttl        time.Duration
	entries    map[string]cacheEntry
	byWorkflow map[string]map[string]struct{}
	now        func() time.Time
}

func newCache(ttl time.Duration) *cache {
	return &cache{
		ttl:        ttl,
		entries:    make(map[string]cacheEntry),
		byWorkflow: make(map[string]map[string]struct{}),
		now:        time.Now,
	}
}

// get returns the cached list for a fingerprint if present and unexpired.
func (c *cache) get(key string) ([]types.Recommendation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.removeLocked(key)
		return nil, false
	}
	return entry.recommendations, true
}

// put stores a ranked list under its fingerprint and indexes every
// referenced workflow id back to the entry.
func (c *cache) put(key string, recs []types.Recommendation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(key)
	c.entries[key] = cacheEntry{
		recommendations: recs,
		expiresAt:       c.now().Add(c.ttl),
	}
	for _, rec := range recs {
		keys, ok := c.byWorkflow[rec.WorkflowID]
		if !ok {
			keys = make(map[string]struct{})
			c.byWorkflow[rec.WorkflowID] = keys
		}
		keys[key] = struct{}{}
	}
}

// invalidateWorkflow drops every cached list referencing the workflow.
// Unknown ids are a no-op.
func (c *cache) invalidateWorkflow(workflowID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := c.byWorkflow[workflowID]
	removed := len(keys)
	for key := range keys {
		c.removeLocked(key)
	}
	return removed
}

// clear drops all entries.
func (c *cache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
	c.byWorkflow = make(map[string]map[string]struct{})
}

// sweepExpired removes expired entries and reports how many were dropped.
func (c *cache) sweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var removed int
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			c.removeLocked(key)
			removed++
		}
	}
	return removed
}

// len reports the number of live entries.
func (c *cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// removeLocked drops an entry and unindexes its workflow ids. Caller
// holds the mutex.
func (c *cache) removeLocked(key string) {
	entry, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	for _, rec := range entry.recommendations {
		keys := c.byWorkflow[rec.WorkflowID]
		delete(keys, key)
		if len(keys) == 0 {
			delete(c.byWorkflow, rec.WorkflowID)
		}
	}
}
