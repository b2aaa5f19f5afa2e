package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "github.com/MrSnakeDoc/curio/internal/store/redis"
	"github.com/MrSnakeDoc/curio/internal/testutil"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "curio:cache:resources:q=", redisstore.CacheKey("resources:q="))
	assert.Equal(t, "curio:tag:resources", redisstore.TagKey(" Resources "))
}

func TestStore_TaggedCache(t *testing.T) {
	ctx := context.Background()
	store := redisstore.NewStore(testutil.NewRedisClientWithCleanup(ctx, t))
	require.NoError(t, store.Ping(ctx))

	require.NoError(t, store.Set(ctx, "resources:a", []string{"x"}, time.Hour, "resources"))
	require.NoError(t, store.Set(ctx, "resources:b", []string{"y"}, time.Hour, "resources"))
	require.NoError(t, store.Set(ctx, "options", map[string]int{"n": 1}, time.Hour, "resource-options"))

	var got []string
	ok, err := store.Get(ctx, "resources:a", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, got)

	ok, err = store.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	removed, err := store.InvalidateTags(ctx, "resources")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	ok, _ = store.Get(ctx, "resources:a", &got)
	assert.False(t, ok, "invalidated entry is gone")

	var opts map[string]int
	ok, _ = store.Get(ctx, "options", &opts)
	assert.True(t, ok, "other tags are untouched")

	require.NoError(t, store.Flush(ctx))
	ok, _ = store.Get(ctx, "options", &opts)
	assert.False(t, ok)
}

func TestStore_TTL(t *testing.T) {
	ctx := context.Background()
	client := testutil.NewRedisClientWithCleanup(ctx, t)
	store := redisstore.NewStore(client)

	require.NoError(t, store.Set(ctx, "k", 1, 0, "t"))
	ttl, err := client.TTL(ctx, redisstore.CacheKey("k")).Result()
	require.NoError(t, err)
	assert.InDelta(t, redisstore.DefaultCacheTTL.Seconds(), ttl.Seconds(), 5, "zero ttl falls back to the default window")
}
