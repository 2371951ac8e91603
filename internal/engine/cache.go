// cache.go provides an in-memory cache for rendered certificate markup.
// This is the L1 cache. Entries are keyed by template ID and version plus a
// digest of the render inputs, so saving a template (which bumps its version)
// produces a cache miss on its own.
package engine

import (
	"encoding/hex"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// maxCacheEntries bounds the L1 cache. When full, the cache is cleared
// rather than tracking recency.
const maxCacheEntries = 2048

// cacheKey uniquely identifies one rendering of one template version.
type cacheKey struct {
	id      string // UUID as string
	version int
	digest  string
}

// renderCache is a concurrency-safe in-memory cache of rendered HTML.
type renderCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]string
}

func newRenderCache() *renderCache {
	return &renderCache{
		entries: make(map[cacheKey]string),
	}
}

// get returns cached markup and whether it was present.
func (c *renderCache) get(k cacheKey) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	html, ok := c.entries[k]
	return html, ok
}

func (c *renderCache) put(k cacheKey, html string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= maxCacheEntries {
		c.entries = make(map[cacheKey]string)
		slog.Debug("render cache full, cleared")
	}
	c.entries[k] = html
	slog.Debug("render cached", "id", k.id, "version", k.version, "size", len(c.entries))
}

// invalidate removes every cached rendering of a template.
// Called when a template is updated or deleted.
func (c *renderCache) invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.id == id {
			delete(c.entries, k)
		}
	}
	slog.Debug("render cache invalidated", "id", id)
}

func (c *renderCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]string)
	slog.Debug("render cache fully cleared")
}

func (c *renderCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Digest hashes a data context together with the scale and day the render
// depends on. Keys are sorted so map iteration order does not matter.
func Digest(data map[string]string, scale float64, day string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h, _ := blake2b.New256(nil)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(data[k]))
		h.Write([]byte{0})
	}
	h.Write([]byte(strconv.FormatFloat(scale, 'g', -1, 64)))
	h.Write([]byte{0})
	h.Write([]byte(day))
	return hex.EncodeToString(h.Sum(nil))
}
