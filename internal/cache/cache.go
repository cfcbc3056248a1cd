// Package cache holds the cached pending-assignment count. The count lives
// in Redis when configured and in process memory otherwise.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PendingCounter caches the number of pending assignments.
type PendingCounter interface {
	// Get returns the cached count and whether one was cached.
	Get(ctx context.Context) (int, bool, error)
	Set(ctx context.Context, n int) error
	Invalidate(ctx context.Context) error
}

// PendingCountKey is the Redis key of the cached count.
const PendingCountKey = "zimmet:assignments:pending_count"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Redis is a PendingCounter backed by Redis.
type Redis struct {
	store cmdable
	ttl   time.Duration
}

// NewRedis connects to the Redis server at url and verifies connectivity.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{store: raw, ttl: ttl}, nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	if c, ok := r.store.(*redis.Client); ok {
		return c.Close()
	}
	return nil
}

func (r *Redis) Get(ctx context.Context) (int, bool, error) {
	v, err := r.store.Get(ctx, PendingCountKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading pending count: %w", err)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("decoding pending count: %w", err)
	}
	return n, true, nil
}

func (r *Redis) Set(ctx context.Context, n int) error {
	if err := r.store.Set(ctx, PendingCountKey, n, r.ttl).Err(); err != nil {
		return fmt.Errorf("storing pending count: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context) error {
	if err := r.store.Del(ctx, PendingCountKey).Err(); err != nil {
		return fmt.Errorf("invalidating pending count: %w", err)
	}
	return nil
}

// Memory is an in-process PendingCounter.
type Memory struct {
	mu      sync.Mutex
	n       int
	ok      bool
	expires time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory returns an empty in-memory counter. A zero ttl never expires.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now}
}

func (m *Memory) Get(context.Context) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ok || (m.ttl > 0 && !m.now().Before(m.expires)) {
		return 0, false, nil
	}
	return m.n, true, nil
}

func (m *Memory) Set(_ context.Context, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n, m.ok = n, true
	m.expires = m.now().Add(m.ttl)
	return nil
}

func (m *Memory) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ok = false
	return nil
}

// Nop never caches anything.
type Nop struct{}

func (Nop) Get(context.Context) (int, bool, error) { return 0, false, nil }
func (Nop) Set(context.Context, int) error         { return nil }
func (Nop) Invalidate(context.Context) error       { return nil }
