package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tubeshop-backend/pkg/config"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), count)
	require.Len(t, mock.expireCalls, 1)
	assert.Equal(t, "ts:rate_limit:test-scope", mock.expireCalls[0].key)

	allowed, count, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(2), count)
	assert.Len(t, mock.expireCalls, 1, "expire should only be set on the first increment")

	allowed, _, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestSetNXGetDel(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	ok, err := client.SetNX(ctx, "k", "owner-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, "k", "owner-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "owner-1", v)

	require.NoError(t, client.Del(ctx, "k"))
	_, err = client.Get(ctx, "k")
	assert.True(t, IsNil(err))
}

func TestCompareAndDelete(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	_, err := client.SetNX(ctx, "ts:lock:sync", "run-a", time.Minute)
	require.NoError(t, err)

	deleted, err := client.CompareAndDelete(ctx, "ts:lock:sync", "run-b")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, "run-a", mock.data["ts:lock:sync"])

	deleted, err = client.CompareAndDelete(ctx, "ts:lock:sync", "run-a")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NotContains(t, mock.data, "ts:lock:sync")
	require.Len(t, mock.evalScripts, 2)
	assert.Equal(t, compareAndDeleteScript, mock.evalScripts[0])

	deleted, err = client.CompareAndDelete(ctx, "ts:lock:sync", "run-a")
	require.NoError(t, err)
	assert.False(t, deleted, "missing key")

	_, err = (&Client{}).CompareAndDelete(ctx, "k", "v")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestZeroClientReturnsNotInitialized(t *testing.T) {
	ctx := context.Background()
	client := &Client{}

	_, err := client.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = client.SetNX(ctx, "k", "v", time.Second)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, _, err = client.FixedWindowAllow(ctx, "s", 1, time.Second)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, client.Ping(ctx), ErrNotInitialized)
	assert.NoError(t, client.Close())
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "ts:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	assert.Equal(t, "ts:rate_limit:scope", client.RateLimitKey("scope"))
	assert.Equal(t, "ts:lock:sync", client.LockKey("sync"))
	assert.Equal(t, "ts:idempotency:scope", client.IdempotencyKey("scope", " "), "empty parts are skipped")
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 2, PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{URL: "redis://:secret@cache:6380/3"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 3, opts.DB)
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
	evalScripts []string
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(_ context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// Eval understands only the compare-and-delete script.
func (m *mockCmdable) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	m.evalScripts = append(m.evalScripts, script)
	if len(keys) != 1 || len(args) != 1 {
		return redis.NewCmdResult(nil, fmt.Errorf("unexpected eval arity"))
	}
	if v, ok := m.data[keys[0]]; ok && v == fmt.Sprint(args[0]) {
		delete(m.data, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}
