// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package formatter

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache remembers provider responses for the lifetime of a run, so
// identical chunks across files are formatted once.
type Cache struct {
	c *gocache.Cache
}

// NewCache returns a response cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{c: gocache.New(ttl, 10*time.Minute)}
}

// cacheKey hashes everything that determines a response.
func cacheKey(provider, model string, req Request) string {
	h := sha256.New()
	for _, s := range []string{provider, model, req.System, req.User} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) get(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c *Cache) set(key, value string) {
	if c == nil {
		return
	}
	c.c.SetDefault(key, value)
}

// Len reports the number of cached responses.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.c.ItemCount()
}
