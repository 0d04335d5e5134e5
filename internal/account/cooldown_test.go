package account

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisCooldown(t *testing.T) {
	client := redisClient(t)
	cd := NewRedisCooldown(client)
	ctx := context.Background()
	key := "cooldown-test@x.com"
	require.NoError(t, cd.Release(ctx, key))

	ok, err := cd.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cd.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire inside the window must fail")

	ttl, err := client.TTL(ctx, cooldownPrefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cd.Release(ctx, key))
	ok, err = cd.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, cd.Release(ctx, key))
}
