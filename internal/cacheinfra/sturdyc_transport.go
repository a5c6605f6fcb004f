package cacheinfra

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// SturdycTransport keeps entries in an in-process sturdyc client. It lists keys in one
// pass (KEYS semantics) and has no incremental scan.
type SturdycTransport struct {
	client *sturdyc.Client[entry]
	maxTTL time.Duration
	now    func() time.Time
}

// NewSturdycTransport validates cfg and creates the sturdyc client.
func NewSturdycTransport(cfg Config) (*SturdycTransport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[entry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.MaxTTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycTransport{client: client, maxTTL: cfg.MaxTTL, now: time.Now}, nil
}

// Get returns the stored bytes. Expired entries are dropped and reported as a miss.
func (s *SturdycTransport) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	e, ok := s.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	if e.expired(s.now()) {
		s.client.Delete(key)
		return nil, false, nil
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set stores a copy of value. A ttl of zero, or one above MaxTTL, uses MaxTTL.
func (s *SturdycTransport) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 || ttl > s.maxTTL {
		ttl = s.maxTTL
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.client.Set(key, entry{value: stored, expiresAt: s.now().Add(ttl)})
	return nil
}

// Del removes keys and reports how many of them held a live entry.
func (s *SturdycTransport) Del(ctx context.Context, keys ...string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := s.now()
	var removed int64
	for _, key := range keys {
		if e, ok := s.client.Get(key); ok && !e.expired(now) {
			removed++
		}
		s.client.Delete(key)
	}
	return removed, nil
}

// Keys lists the live keys matching a Redis-style glob pattern.
func (s *SturdycTransport) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	var keys []string
	for _, key := range s.client.ScanKeys() {
		if !MatchGlob(pattern, key) {
			continue
		}
		if e, ok := s.client.Get(key); ok && !e.expired(now) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
