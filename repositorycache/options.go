package repositorycache

import (
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-repository-kvcache/cache"
)

// AdvisoryWrite describes one cache population attempt. A failed write never fails
// the read that triggered it.
type AdvisoryWrite struct {
	Key      string
	Err      error
	Duration time.Duration
}

// Failed reports whether the SET was rejected.
func (a AdvisoryWrite) Failed() bool { return a.Err != nil }

// Option customizes a CachedRepository.
type Option func(*settings)

type settings struct {
	logger           *zap.Logger
	codec            cache.Codec
	deriver          cache.KeyDeriver
	advisoryHook     func(AdvisoryWrite)
	asyncPopulate    bool
	corruptionAsMiss bool
}

func defaultSettings() settings {
	return settings{
		logger: zap.NewNop(),
		codec:  cache.JSONCodec{},
	}
}

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCodec replaces the JSON codec used for stored payloads.
func WithCodec(codec cache.Codec) Option {
	return func(s *settings) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// WithKeyDeriver replaces the default key deriver.
func WithKeyDeriver(deriver cache.KeyDeriver) Option {
	return func(s *settings) {
		s.deriver = deriver
	}
}

// WithAdvisoryHook registers a callback receiving the outcome of every cache population.
// It runs on the goroutine performing the SET.
func WithAdvisoryHook(hook func(AdvisoryWrite)) Option {
	return func(s *settings) {
		s.advisoryHook = hook
	}
}

// WithAsyncPopulate performs cache population on a background goroutine so reads return
// as soon as the store answers. Use Wait to drain pending writes.
func WithAsyncPopulate() Option {
	return func(s *settings) {
		s.asyncPopulate = true
	}
}

// WithCorruptionAsMiss treats undecodable entries as misses and refetches from the store
// instead of returning a *cache.CacheCorruptionError.
func WithCorruptionAsMiss() Option {
	return func(s *settings) {
		s.corruptionAsMiss = true
	}
}
