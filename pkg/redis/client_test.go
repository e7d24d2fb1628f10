package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/larder-backend/pkg/config"
)

func TestAllowCountsWithinWindow(t *testing.T) {
	ctx := context.Background()
	mem := newMemCommands()
	client := &Client{cmds: mem}

	first, err := client.Allow(ctx, "share:user:1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.EqualValues(t, 1, first.Count)
	assert.Equal(t, time.Minute, first.ResetIn)

	mem.ttl["larder:rate_limit:share:user:1"] = 20 * time.Second
	second, err := client.Allow(ctx, "share:user:1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, 20*time.Second, second.ResetIn, "existing deadline must not be extended")

	third, err := client.Allow(ctx, "share:user:1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.EqualValues(t, 3, third.Count)

	other, err := client.Allow(ctx, "share:user:2", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestAllowRejectsZeroWindow(t *testing.T) {
	client := &Client{cmds: newMemCommands()}
	_, err := client.Allow(context.Background(), "scope", 1, 0)
	require.Error(t, err)
}

func TestIdempotencyRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := &Client{cmds: newMemCommands()}
	k := client.IdempotencyKey("POST /lists", "abc")
	assert.Equal(t, "larder:idempotency:POST /lists:abc", k)

	ok, err := client.SetNX(ctx, k, "pending", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, k, "pending", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, client.Set(ctx, k, "done", time.Minute))
	got, err := client.Get(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, "done", got)

	require.NoError(t, client.Del(ctx, k))
	require.NoError(t, client.Del(ctx))
	_, err = client.Get(ctx, k)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	assert.ErrorIs(t, client.Ping(context.Background()), errNotInitialized)
	_, err := client.Allow(context.Background(), "scope", 1, time.Second)
	assert.ErrorIs(t, err, errNotInitialized)
	assert.NoError(t, client.Close())

	var nilClient *Client
	assert.NoError(t, nilClient.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, ReadTimeout: 3 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, 3*time.Second, opts.ReadTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 4})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 4, opts.DB)
}

func TestKeySkipsEmptyParts(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "larder:rate_limit:share:ip:1.2.3.4", client.RateLimitKey("share:ip:1.2.3.4"))
	assert.Equal(t, "larder:idempotency:scope", client.IdempotencyKey("scope", " "))
}

type memCommands struct {
	data map[string]string
	ttl  map[string]time.Duration
}

func newMemCommands() *memCommands {
	return &memCommands{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (m *memCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memCommands) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memCommands) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *memCommands) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := m.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *memCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(m.data, k)
		delete(m.ttl, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *memCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	var n int64
	fmt.Sscan(m.data[key], &n)
	n++
	m.data[key] = fmt.Sprint(n)
	return redis.NewIntResult(n, nil)
}

func (m *memCommands) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	if _, ok := m.ttl[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.ttl[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *memCommands) PTTL(_ context.Context, key string) *redis.DurationCmd {
	ttl, ok := m.ttl[key]
	if !ok {
		return redis.NewDurationResult(-2*time.Millisecond, nil)
	}
	return redis.NewDurationResult(ttl, nil)
}
