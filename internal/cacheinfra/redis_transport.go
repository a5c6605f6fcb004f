package cacheinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTransport issues GET, SET PX, SCAN and DEL through a go-redis client.
// go-redis clients are safe for concurrent use, so no extra locking is done here.
type RedisTransport struct {
	client redis.UniversalClient
}

// NewRedisTransport wraps an existing client.
func NewRedisTransport(client redis.UniversalClient) *RedisTransport {
	return &RedisTransport{client: client}
}

// OpenRedisTransport parses a redis:// URL, creates a client and verifies it with PING.
func OpenRedisTransport(ctx context.Context, url string) (*RedisTransport, error) {
	if url == "" {
		url = "redis://localhost:6379"
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisTransport{client: client}, nil
}

// Get returns found == false when the server answers with a nil reply.
func (r *RedisTransport) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

// Set stores value with an expiry. go-redis sends PX for sub-second precision and EX
// for whole seconds. A non-positive ttl stores the entry without expiry.
func (r *RedisTransport) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Del removes keys in one command and returns the server's count.
func (r *RedisTransport) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return r.client.Del(ctx, keys...).Result()
}

// Scan runs one SCAN step.
func (r *RedisTransport) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	return r.client.Scan(ctx, cursor, match, count).Result()
}

// Keys runs KEYS. It blocks the server for the whole keyspace walk; prefer Scan.
func (r *RedisTransport) Keys(ctx context.Context, pattern string) ([]string, error) {
	return r.client.Keys(ctx, pattern).Result()
}

// Close closes the underlying client.
func (r *RedisTransport) Close() error {
	return r.client.Close()
}
