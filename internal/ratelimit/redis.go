package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "melodist:rl:"

// RedisLimiter counts hits per key in fixed windows shared by every API replica. Each
// window has its own counter key, so the window boundary comes from the clock rather
// than from a TTL read back from Redis.
type RedisLimiter struct {
	client redis.UniversalClient
	now    func() time.Time
	prefix string
}

func NewRedis(addr, password string, db int, now func() time.Time) (*RedisLimiter, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisWithClient(client, now), nil
}

func NewRedisWithClient(client redis.UniversalClient, now func() time.Time) *RedisLimiter {
	if now == nil {
		now = time.Now
	}
	return &RedisLimiter{client: client, now: now, prefix: defaultRedisPrefix}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	if window <= 0 {
		window = time.Second
	}
	now := r.now()
	start := now.Truncate(window)
	counter := r.prefix + key + ":" + strconv.FormatInt(start.UnixMilli(), 10)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, counter)
		// Outlive the window so a slow clock on another replica still sees the count.
		p.PExpire(ctx, counter, 2*window)
		return nil
	})
	if err != nil {
		return Decision{}, err
	}
	current := int(incr.Val())
	remaining := limit - current
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   current <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   start.Add(window),
	}, nil
}

// Ping checks that Redis is reachable.
func (r *RedisLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisLimiter) Close() error {
	return r.client.Close()
}
