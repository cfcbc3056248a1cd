package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPendingCount(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	r := &Redis{store: mock, ttl: time.Minute}

	_, ok, err := r.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, 7))
	assert.Equal(t, time.Minute, mock.ttls[PendingCountKey])

	n, ok, err := r.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	require.NoError(t, r.Invalidate(ctx))
	_, ok, err = r.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisErrors(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	mock.err = errors.New("connection refused")
	r := &Redis{store: mock}

	_, _, err := r.Get(ctx)
	assert.Error(t, err)
	assert.Error(t, r.Set(ctx, 1))
	assert.Error(t, r.Invalidate(ctx))

	mock.err = nil
	mock.data[PendingCountKey] = "not a number"
	_, _, err = r.Get(ctx)
	assert.Error(t, err)
}

func TestMemoryPendingCount(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	_, ok, _ := m.Get(ctx)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, 3))
	n, ok, _ := m.Get(ctx)
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	now = now.Add(2 * time.Minute)
	_, ok, _ = m.Get(ctx)
	assert.False(t, ok, "expired")

	require.NoError(t, m.Set(ctx, 4))
	require.NoError(t, m.Invalidate(ctx))
	_, ok, _ = m.Get(ctx)
	assert.False(t, ok)
}

func TestNop(t *testing.T) {
	var c PendingCounter = Nop{}
	require.NoError(t, c.Set(context.Background(), 1))
	_, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

type mockCmdable struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", m.err)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	if m.err != nil {
		return redis.NewStringResult("", m.err)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if m.err != nil {
		return redis.NewStatusResult("", m.err)
	}
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if m.err != nil {
		return redis.NewIntResult(0, m.err)
	}
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
