package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/redis/go-redis/v9"
)

// Deduper remembers event keys so redelivered bus messages are processed once
type Deduper interface {
	// FirstSeen records key and reports whether it had not been seen within the TTL
	FirstSeen(ctx context.Context, key string) (bool, error)
}

// redisClient is the subset of *redis.Client used for deduplication
type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisDeduper shares seen keys across relay instances
type RedisDeduper struct {
	client redisClient
	prefix string
	ttl    time.Duration
}

// NewRedisDeduper creates a Deduper storing keys under prefix with the given TTL
func NewRedisDeduper(client redisClient, prefix string, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, prefix: prefix, ttl: ttl}
}

func (d *RedisDeduper) FirstSeen(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+key, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record event %s: %w", key, err)
	}
	return ok, nil
}

// MemoryDeduper keeps seen keys in process, for single-instance deployments
type MemoryDeduper struct {
	cache *ttlcache.Cache[string, struct{}]
}

// NewMemoryDeduper creates a MemoryDeduper and starts its expiry loop. Call Stop when done.
func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	cache := ttlcache.New[string, struct{}](
		ttlcache.WithTTL[string, struct{}](ttl),
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	go cache.Start()
	return &MemoryDeduper{cache: cache}
}

func (d *MemoryDeduper) FirstSeen(_ context.Context, key string) (bool, error) {
	_, found := d.cache.GetOrSet(key, struct{}{})
	return !found, nil
}

func (d *MemoryDeduper) Stop() {
	d.cache.Stop()
}
