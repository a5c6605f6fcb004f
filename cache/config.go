package cache

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-repository-kvcache/internal/cacheinfra"
)

const (
	// DefaultTTL is applied when Options.TTL is zero.
	DefaultTTL = 60 * time.Second
	// DefaultScanBatchSize is applied when Options.ScanBatchSize is zero.
	DefaultScanBatchSize int64 = 100
)

// Options configures one cached repository. They are fixed for its lifetime.
type Options struct {
	// Prefix namespaces every key of one entity type. Required.
	Prefix string
	// TTL is the expiry of every populated entry. Millisecond precision.
	TTL time.Duration
	// ScanBatchSize is the COUNT hint passed to each SCAN step during invalidation.
	ScanBatchSize int64
}

// WithDefaults returns a copy of o with zero values replaced by the defaults.
func (o Options) WithDefaults() Options {
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	if o.ScanBatchSize == 0 {
		o.ScanBatchSize = DefaultScanBatchSize
	}
	return o
}

// Validate checks the options, returning a *ConfigurationError for the first bad field.
func (o Options) Validate() error {
	err := validation.ValidateStruct(&o,
		validation.Field(&o.Prefix, validation.Required),
		validation.Field(&o.TTL, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&o.ScanBatchSize, validation.Required, validation.Min(int64(1))),
	)
	return asConfigurationError(err)
}

func asConfigurationError(err error) error {
	if err == nil {
		return nil
	}

	var fields validation.Errors
	if errors.As(err, &fields) {
		for _, name := range []string{"Prefix", "TTL", "ScanBatchSize", "Capacity", "NumShards", "EvictionPercentage"} {
			if fieldErr, ok := fields[name]; ok && fieldErr != nil {
				return &ConfigurationError{Field: name, Message: fieldErr.Error(), Err: err}
			}
		}
	}

	var cfgErr *cacheinfra.ConfigError
	if errors.As(err, &cfgErr) {
		return &ConfigurationError{Field: cfgErr.Field, Message: cfgErr.Message, Err: err}
	}

	return &ConfigurationError{Message: err.Error(), Err: err}
}

// MemoryConfig configures the in-process transport.
type MemoryConfig struct {
	Capacity           int
	NumShards          int
	MaxTTL             time.Duration
	EvictionPercentage int
	EvictionInterval   time.Duration
}

// DefaultMemoryConfig returns a MemoryConfig populated with sensible defaults.
func DefaultMemoryConfig() MemoryConfig {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the configuration values are valid.
func (c MemoryConfig) Validate() error {
	return asConfigurationError(c.toInternal().Validate())
}

// NewMemoryTransport builds an in-process transport. It supports KEYS-style listing but
// not incremental scanning.
func NewMemoryTransport(cfg MemoryConfig) (Transport, error) {
	t, err := cacheinfra.NewSturdycTransport(cfg.toInternal())
	if err != nil {
		return nil, asConfigurationError(err)
	}
	return Guard(t), nil
}

// NewRedisTransport wraps an existing go-redis client. The caller keeps ownership of the
// client unless it closes the transport.
func NewRedisTransport(client redis.UniversalClient) Transport {
	return Guard(cacheinfra.NewRedisTransport(client))
}

// OpenRedisTransport parses a redis:// URL, connects and pings the server.
func OpenRedisTransport(ctx context.Context, url string) (Transport, error) {
	t, err := cacheinfra.OpenRedisTransport(ctx, url)
	if err != nil {
		return nil, &TransportError{Op: "CONNECT", Err: err}
	}
	return Guard(t), nil
}

func (c MemoryConfig) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		MaxTTL:             c.MaxTTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) MemoryConfig {
	return MemoryConfig{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		MaxTTL:             cfg.MaxTTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}
