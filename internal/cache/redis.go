package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/mathsprint/internal/analytics"
)

// RedisConfig locates the Redis server.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// TTL bounds how long a projection may be served after the last
	// invalidation was missed.
	TTL time.Duration

	// Prefix namespaces every key.
	Prefix string
}

// RedisCache keeps projections as JSON strings in Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache connects to Redis and pings it.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return newRedisCache(client, cfg), nil
}

func newRedisCache(client *redis.Client, cfg RedisConfig) *RedisCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "mathsprint"
	}
	return &RedisCache{client: client, ttl: ttl, prefix: prefix}
}

func (c *RedisCache) key(name string) string {
	return c.prefix + ":projection:" + name
}

func (c *RedisCache) Leaderboard(ctx context.Context) ([]analytics.LeaderboardEntry, error) {
	var entries []analytics.LeaderboardEntry
	return entries, c.get(ctx, leaderboardKey, &entries)
}

func (c *RedisCache) SetLeaderboard(ctx context.Context, entries []analytics.LeaderboardEntry) error {
	return c.set(ctx, leaderboardKey, entries)
}

func (c *RedisCache) StudentStats(ctx context.Context) ([]analytics.StudentStats, error) {
	var stats []analytics.StudentStats
	return stats, c.get(ctx, studentStatsKey, &stats)
}

func (c *RedisCache) SetStudentStats(ctx context.Context, stats []analytics.StudentStats) error {
	return c.set(ctx, studentStatsKey, stats)
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key(leaderboardKey), c.key(studentStatsKey)).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) get(ctx context.Context, name string, v any) error {
	data, err := c.client.Get(ctx, c.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (c *RedisCache) set(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return c.client.Set(ctx, c.key(name), data, c.ttl).Err()
}
