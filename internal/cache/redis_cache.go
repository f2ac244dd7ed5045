package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisReceiptCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisReceiptCache(rdb *redis.Client, ttl time.Duration) *RedisReceiptCache {
	return &RedisReceiptCache{rdb: rdb, ttl: ttl}
}

func (c *RedisReceiptCache) SeenInbound(ctx context.Context, providerMessageID string) (bool, error) {
	if providerMessageID == "" {
		return false, nil
	}

	key := fmt.Sprintf("sms:inbound:%s", providerMessageID)

	// SETNX: first delivery claims the key, retries see it already set.
	created, err := c.rdb.SetNX(ctx, key, 1, c.ttl).Result()
	if err != nil {
		return false, err
	}
	return !created, nil
}
