package pattern

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/xraph/routeguard/urlpath"
)

type cached struct {
	pat *Pattern
	err error
}

// Cache is a read-through store of compiled templates keyed by their
// canonical text. Each distinct template is compiled at most once, even
// under concurrent lookups; failures are remembered as well. Entries are
// never evicted since the key space is bounded by registered endpoints.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cached
	group   singleflight.Group
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cached)}
}

// Get returns the compiled form of raw.
func (c *Cache) Get(raw string) (*Pattern, error) {
	key := urlpath.Normalize(raw)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return e.pat, e.err
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		e, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return e, nil
		}
		pat, err := Compile(key)
		e = cached{pat: pat, err: err}
		c.mu.Lock()
		c.entries[key] = e
		c.mu.Unlock()
		return e, nil
	})
	e = v.(cached) //nolint:errcheck // Do only ever returns cached
	return e.pat, e.err
}

// Len returns the number of cached templates, failures included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
