// Package redisad backs the domain.Cache port with Redis. The app layer
// stores JSON snapshots of read models here (property detail under
// "property:<id>", sitter pages under "sitters:<page>:<limit>") and deletes
// them on the write paths that invalidate them.
package redisad

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"howsitter/internal/adapters/observability"
)

type Cache struct{ client *redis.Client }

func New(addr, pass string, db int) *Cache {
	return &Cache{client: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

// Get unmarshals the value stored under key into dst. The bool reports
// whether the key was present; a miss is not an error.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	observability.ObserveCache("redis", "hit")
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	observability.ObserveCache("redis", "set")
	return c.client.Set(ctx, key, b, time.Duration(ttlSec)*time.Second).Err()
}

func (c *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache("redis", "del")
	return c.client.Del(ctx, key).Err()
}
