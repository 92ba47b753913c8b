// Package translate holds the per-process translation cache and the
// display flattening of structured translation results.
package translate

import (
	"sync"

	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// Key identifies a cached translation
type Key struct {
	TextID string
	Page   int
}

// Entry is a cached translation: the flattened display string plus the
// full structured result for sentence-level alignment
type Entry struct {
	Flattened string
	Result    *types.TranslationResult
}

// Cache maps (text id, page number) to previously fetched translations.
// Entries live for the process lifetime; a fresh user-triggered
// translation overwrites the entry for its key. There is no eviction,
// so memory use grows with the number of distinct pages translated.
type Cache struct {
	entries map[Key]*Entry
	mu      sync.RWMutex
}

// NewCache creates an empty translation cache
func NewCache() *Cache {
	return &Cache{
		entries: make(map[Key]*Entry),
	}
}

// Get returns the cached entry for the key, or nil
func (c *Cache) Get(key Key) *Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[key]
}

// Put stores an entry, overwriting any prior value for the key
func (c *Cache) Put(key Key, entry *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
