package service

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

// ResponseCache keeps successful completions keyed by prompt digest. It is
// bounded; the least recently used entry is evicted first.
type ResponseCache struct {
	entries *lru.Cache[string, core.Completion]
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewResponseCache creates a cache holding at most maxEntries completions.
func NewResponseCache(maxEntries int) *ResponseCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, core.Completion](maxEntries)
	return &ResponseCache{entries: entries}
}

// CacheKey returns the digest used to index a prompt. The model is not part
// of the key: an answer from any tier satisfies the same prompt.
func CacheKey(p core.Prompt) string {
	h := sha256.New()
	h.Write([]byte(p.System))
	h.Write([]byte{0})
	h.Write([]byte(p.User))
	return hex.EncodeToString(h.Sum(nil))[:20]
}

// Get returns the cached completion for key.
func (c *ResponseCache) Get(key string) (core.Completion, bool) {
	comp, ok := c.entries.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return comp, ok
}

// Put stores a completion, evicting the least recently used entry when full.
func (c *ResponseCache) Put(key string, comp core.Completion) {
	c.entries.Add(key, comp)
}

// Len returns the number of cached entries.
func (c *ResponseCache) Len() int {
	return c.entries.Len()
}

// Stats returns cache hit and miss counts.
func (c *ResponseCache) Stats() (hits, misses int) {
	return int(c.hits.Load()), int(c.misses.Load())
}
