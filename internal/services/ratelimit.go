package services

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RateLimiter counts hits per key in a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// MemoryLimiter keeps counters in process memory.
type MemoryLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	counts *cache.Cache
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:  limit,
		window: window,
		counts: cache.New(window, 2*window),
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	if m.limit <= 0 {
		return Decision{Allowed: true}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	value, expires, found := m.counts.GetWithExpiration(key)
	if !found {
		m.counts.Set(key, 1, m.window)
		return Decision{Allowed: true}, nil
	}
	if count, _ := value.(int); count >= m.limit {
		return Decision{Allowed: false, RetryAfter: time.Until(expires)}, nil
	}
	if err := m.counts.Increment(key, 1); err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: true}, nil
}

type redisRateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisLimiter shares counters between instances through redis.
type RedisLimiter struct {
	client redisRateCounter
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client redisRateCounter, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if r.limit <= 0 {
		return Decision{Allowed: true}, nil
	}
	fullKey := r.prefix + key
	count, err := r.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return Decision{}, err
	}
	if count == 1 {
		_ = r.client.Expire(ctx, fullKey, r.window).Err()
	}
	if count <= int64(r.limit) {
		return Decision{Allowed: true}, nil
	}
	ttl, err := r.client.TTL(ctx, fullKey).Result()
	if err != nil || ttl <= 0 {
		ttl = r.window
	}
	return Decision{Allowed: false, RetryAfter: ttl}, nil
}
