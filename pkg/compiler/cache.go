package compiler

import (
	"crypto/sha256"
	"sync"
)

type cacheKey struct {
	hash  [sha256.Size]byte
	level int
}

// Cache memoizes pipeline results keyed by a content hash of the source
// text plus the active optimization level. A hit skips all five stages; a
// hit is exact-match only, there is no partial recompilation.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]Result
}

func NewCache() *Cache {
	return &Cache{entries: map[cacheKey]Result{}}
}

func (c *Cache) key(src string, level int) cacheKey {
	return cacheKey{hash: sha256.Sum256([]byte(src)), level: level}
}

// Get returns the cached result for src at level.
func (c *Cache) Get(src string, level int) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[c.key(src, level)]
	return res, ok
}

// Put stores a result.
func (c *Cache) Put(src string, level int, res Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(src, level)] = res
}

// Len reports the number of cached artifacts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Compile runs the pipeline through the cache. The second result reports
// whether the artifact came from a previous run.
func (c *Cache) Compile(src string, cfg Config) (Result, bool, error) {
	if res, ok := c.Get(src, cfg.OptimizationLevel); ok {
		return res, true, nil
	}
	res, err := Compile(src, cfg)
	if err != nil {
		return res, false, err
	}
	c.Put(src, cfg.OptimizationLevel, res)
	return res, false, nil
}
