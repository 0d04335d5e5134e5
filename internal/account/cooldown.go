package account

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown throttles repeated code issuance for the same key.
type Cooldown interface {
	// Acquire reports false while a previous acquisition is still live.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

const cooldownPrefix = "yamdb:signup:"

// RedisCooldown keeps one expiring key per address.
type RedisCooldown struct {
	client *redis.Client
}

func NewRedisCooldown(client *redis.Client) *RedisCooldown {
	return &RedisCooldown{client: client}
}

func (c *RedisCooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, cooldownPrefix+key, time.Now().Unix(), ttl).Result()
}

func (c *RedisCooldown) Release(ctx context.Context, key string) error {
	return c.client.Del(ctx, cooldownPrefix+key).Err()
}
