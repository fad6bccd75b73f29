package viewer

import (
	"sync"

	"github.com/Faultbox/meshscope/internal/geometry"
)

// cacheKey identifies one build: a subset within the loaded meshes and the
// options it was built with.
type cacheKey struct {
	mesh, subset int
	opts         geometry.Options
}

// buildCache holds built geometry for the current load. It is cleared
// whenever the meshes are replaced.
type buildCache struct {
	data map[cacheKey]*geometry.Buffers
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

func newBuildCache() *buildCache {
	return &buildCache{
		data: make(map[cacheKey]*geometry.Buffers),
	}
}

func (c *buildCache) get(key cacheKey) (*geometry.Buffers, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return b, ok
}

func (c *buildCache) set(key cacheKey, b *geometry.Buffers) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
}

func (c *buildCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[cacheKey]*geometry.Buffers)
}

func (c *buildCache) stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
