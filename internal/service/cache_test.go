package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/slugkeeper/internal/domain"
)

func TestResolutionCache_Disabled(t *testing.T) {
	c := NewResolutionCache(0, time.Minute)

	assert.Nil(t, c)
	c.add("k", domain.Resolution{SubjectID: 1})
	_, ok := c.get("k")
	assert.False(t, ok)
	c.Purge()
	assert.Zero(t, c.Len())
}

func TestResolutionCache_AddGetPurge(t *testing.T) {
	c := NewResolutionCache(2, time.Minute)

	c.add("k", domain.Resolution{SubjectID: 1})
	got, ok := c.get("k")

	assert.True(t, ok)
	assert.Equal(t, int64(1), got.SubjectID)
	c.Purge()
	assert.Zero(t, c.Len())
}

func TestCacheKey_DistinguishesScope(t *testing.T) {
	empty, a := "", "a"

	keys := map[string]bool{
		cacheKey("article", nil, "x"):    true,
		cacheKey("article", &empty, "x"): true,
		cacheKey("article", &a, "x"):     true,
		cacheKey("page", nil, "x"):       true,
	}

	assert.Len(t, keys, 4)
}
