package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCacheIsNoop(t *testing.T) {
	var c *ETagCache
	ctx := context.Background()

	c.Set(ctx, 1, 0, `"abc"`)
	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
	_, ok = c.Version(ctx, 1)
	assert.False(t, ok)
	c.Invalidate(ctx, 1, 2)
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "playlist:42:etag:3", Key(42, 3))
	assert.Equal(t, "playlist:42:version", VersionKey(42))
}

func TestETagCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set, skipping redis integration test")
	}
	ctx := context.Background()
	c := NewETagCache(addr, os.Getenv("REDIS_USERNAME"), os.Getenv("REDIS_PASSWORD"), time.Minute)
	defer c.Close()
	require.NoError(t, c.Ping(ctx))

	const id = 987654
	c.Invalidate(ctx, id)

	v, ok := c.Version(ctx, id)
	require.True(t, ok)
	c.Set(ctx, id, v, `"deadbeef"`)
	etag, ok := c.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, `"deadbeef"`, etag)

	c.Invalidate(ctx, id)
	_, ok = c.Get(ctx, id)
	assert.False(t, ok)

	// a set computed before the invalidation never becomes visible
	c.Set(ctx, id, v, `"stale"`)
	_, ok = c.Get(ctx, id)
	assert.False(t, ok)
	next, ok := c.Version(ctx, id)
	require.True(t, ok)
	assert.Equal(t, v+1, next)
}
