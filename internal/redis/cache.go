package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a short-TTL JSON response cache for hot read endpoints
// (online players, high scores). A miss is not an error.
type Cache struct {
	client *redis.Client
}

// NewCache creates a cache over an existing Redis client
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func cacheKey(name string) string {
	return "cache:" + name
}

// GetJSON reads a cached value into v. Returns false on a miss.
func (c *Cache) GetJSON(ctx context.Context, name string, v interface{}) (bool, error) {
	data, err := c.client.Get(ctx, cacheKey(name)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading cache: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("unmarshaling cached value: %w", err)
	}
	return true, nil
}

// SetJSON stores a value with a TTL
func (c *Cache) SetJSON(ctx context.Context, name string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling cache value: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(name), data, ttl).Err(); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Invalidate drops a cached entry
func (c *Cache) Invalidate(ctx context.Context, name string) error {
	if err := c.client.Del(ctx, cacheKey(name)).Err(); err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	return nil
}
