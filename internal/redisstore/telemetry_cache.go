package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when no entry exists for the key.
var ErrCacheMiss = errors.New("redisstore: cache miss")

// TelemetryCache keeps recent remote telemetry responses so dashboard
// refreshes do not hammer the upstream API. A nil *TelemetryCache is a
// valid no-op cache.
type TelemetryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTelemetryCache returns a redis-backed cache with entry TTL.
func NewTelemetryCache(client *redis.Client, ttl time.Duration) *TelemetryCache {
	return &TelemetryCache{client: client, ttl: ttl}
}

func (c *TelemetryCache) key(endpoint string, rangeHours int) string {
	return fmt.Sprintf("telemetry:%s:%d", endpoint, rangeHours)
}

// Get unmarshals the cached response into out.
func (c *TelemetryCache) Get(ctx context.Context, endpoint string, rangeHours int, out interface{}) error {
	if c == nil {
		return ErrCacheMiss
	}
	data, err := c.client.Get(ctx, c.key(endpoint, rangeHours)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(data, out)
}

// Set caches value under the endpoint/range key.
func (c *TelemetryCache) Set(ctx context.Context, endpoint string, rangeHours int, value interface{}) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(endpoint, rangeHours), data, c.ttl).Err()
}
