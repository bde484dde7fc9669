// Package cache keeps the most recent quota result per account in memory.
package cache

import (
	"slices"
	"strings"
	"sync"

	"github.com/j-veylop/quonitor/internal/models"
)

// Cache is a concurrency-safe map from account id to its latest quota data.
// Values are copied on the way in and out so callers never share state with
// the cache. Entries live until removed.
type Cache struct {
	data map[string]models.QuotaData
	mu   sync.RWMutex
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{data: make(map[string]models.QuotaData)}
}

// Set stores q under accountID, replacing any previous entry.
func (c *Cache) Set(accountID string, q *models.QuotaData) {
	if q == nil {
		return
	}
	v := q.Clone()
	c.mu.Lock()
	c.data[accountID] = v
	c.mu.Unlock()
}

// Get returns a copy of the entry for accountID.
func (c *Cache) Get(accountID string) (*models.QuotaData, bool) {
	c.mu.RLock()
	v, ok := c.data[accountID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	clone := v.Clone()
	return &clone, true
}

// GetAll returns copies of all entries ordered by account id.
func (c *Cache) GetAll() []models.QuotaData {
	c.mu.RLock()
	out := make([]models.QuotaData, 0, len(c.data))
	for _, v := range c.data {
		out = append(out, v.Clone())
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b models.QuotaData) int {
		return strings.Compare(a.AccountID, b.AccountID)
	})
	return out
}

// Remove deletes the entry for accountID. Missing ids are ignored.
func (c *Cache) Remove(accountID string) {
	c.mu.Lock()
	delete(c.data, accountID)
	c.mu.Unlock()
}

// Len returns the number of cached accounts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	clear(c.data)
	c.mu.Unlock()
}
