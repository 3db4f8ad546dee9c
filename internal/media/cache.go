package media

import "sync"

// Cache is an append-only store of downloaded media, keyed by mxc source.
// Entries are never evicted or replaced, so a key observed once stays
// stable for the life of the session.
type Cache struct {
	mu      sync.RWMutex
	data    map[string][]byte
	pending map[string]bool
}

func NewCache() *Cache {
	return &Cache{
		data:    make(map[string][]byte),
		pending: make(map[string]bool),
	}
}

// Get returns the cached bytes for a source.
func (c *Cache) Get(source string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.data[source]
	return data, ok
}

// Has reports whether a source has been stored.
func (c *Cache) Has(source string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data[source] != nil
}

// Put stores the bytes for a source. The first write wins; later writes
// for the same key are dropped so existing references stay valid.
func (c *Cache) Put(source string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, source)
	if _, ok := c.data[source]; ok {
		return
	}
	c.data[source] = data
}

// StartFetch marks a source as being downloaded and reports whether the
// caller should proceed. It returns false when the source is already
// cached or another fetch is in flight.
func (c *Cache) StartFetch(source string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[source]; ok {
		return false
	}
	if c.pending[source] {
		return false
	}
	c.pending[source] = true
	return true
}

// AbortFetch clears the in-flight mark after a failed download so a
// later attempt can retry.
func (c *Cache) AbortFetch(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, source)
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
