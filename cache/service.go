package cache

import (
	"context"
	"time"
)

// Transport is the minimal set of key-value commands the read-through layer needs.
// A GET miss is reported as found == false with a nil error, never as an error.
type Transport interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
}

// Scanner is implemented by transports that support incremental key enumeration.
// A returned cursor of 0 signals that enumeration is complete.
type Scanner interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) (keys []string, next uint64, err error)
}

// KeyLister is implemented by transports that can only list matching keys in one call.
type KeyLister interface {
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// Closer is implemented by transports that own a connection.
type Closer interface {
	Close() error
}

// Codec encodes cache entries to bytes and back.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}
