package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pkordes/slugkeeper/internal/domain"
)

// ResolutionCache memoizes resolver chain results for a short TTL.
// Any write through this process purges it; writes from other processes
// become visible once entries expire. A nil cache is valid and caches nothing.
type ResolutionCache struct {
	lru *expirable.LRU[string, domain.Resolution]
}

// NewResolutionCache returns a cache holding up to size entries for ttl.
// Returns nil when size is not positive.
func NewResolutionCache(size int, ttl time.Duration) *ResolutionCache {
	if size <= 0 {
		return nil
	}
	return &ResolutionCache{lru: expirable.NewLRU[string, domain.Resolution](size, nil, ttl)}
}

func (c *ResolutionCache) get(key string) (domain.Resolution, bool) {
	if c == nil {
		return domain.Resolution{}, false
	}
	return c.lru.Get(key)
}

func (c *ResolutionCache) add(key string, res domain.Resolution) {
	if c == nil {
		return
	}
	c.lru.Add(key, res)
}

// Purge drops every cached resolution.
func (c *ResolutionCache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

// Len returns the number of cached resolutions.
func (c *ResolutionCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

func cacheKey(subjectType string, scope *string, token string) string {
	if scope == nil {
		return subjectType + "\x00*\x00" + token
	}
	return subjectType + "\x00=" + *scope + "\x00" + token
}
