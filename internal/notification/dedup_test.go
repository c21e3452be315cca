package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	mu   sync.Mutex
	keys map[string]time.Duration
	err  error
}

func (f *fakeRedis) SetNX(_ context.Context, key string, _ interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func TestRedisDeduper(t *testing.T) {
	ctx := context.Background()
	client := &fakeRedis{keys: map[string]time.Duration{}}
	d := NewRedisDeduper(client, "push-relay:event:", 10*time.Minute)

	first, err := d.FirstSeen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.FirstSeen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, again)

	assert.Equal(t, 10*time.Minute, client.keys["push-relay:event:evt-1"])
}

func TestRedisDeduperError(t *testing.T) {
	client := &fakeRedis{keys: map[string]time.Duration{}, err: errors.New("connection refused")}
	d := NewRedisDeduper(client, "", time.Minute)

	_, err := d.FirstSeen(context.Background(), "evt-1")

	assert.ErrorContains(t, err, "connection refused")
}

func TestMemoryDeduper(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDeduper(50 * time.Millisecond)
	defer d.Stop()

	first, err := d.FirstSeen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, first)

	again, _ := d.FirstSeen(ctx, "evt-1")
	assert.False(t, again)

	other, _ := d.FirstSeen(ctx, "evt-2")
	assert.True(t, other)

	assert.Eventually(t, func() bool {
		seen, _ := d.FirstSeen(ctx, "evt-1")
		return seen
	}, time.Second, 20*time.Millisecond, "key should expire after the TTL")
}
