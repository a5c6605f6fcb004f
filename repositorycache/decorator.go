package repositorycache

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-repository-kvcache/cache"
)

// ErrWritesUnsupported is returned by Create, Update and Delete when the backing store
// does not implement Writer.
var ErrWritesUnsupported = errors.New("backing store does not support writes")

// CachedRepository decorates a BackingStore with read-through caching over a cache.Transport.
type CachedRepository[T any, ID comparable] struct {
	store       BackingStore[T, ID]
	transport   cache.Transport
	invalidator *cache.Invalidator
	opts        cache.Options
	settings    settings
	stats       *counters
	pending     inflight
}

// New creates a CachedRepository. Options are completed with defaults and validated.
// A nil transport is accepted here; every read then fails with a *cache.ConfigurationError.
func New[T any, ID comparable](store BackingStore[T, ID], transport cache.Transport, opts cache.Options, options ...Option) (*CachedRepository[T, ID], error) {
	if store == nil {
		return nil, &cache.ConfigurationError{Field: "Store", Message: "backing store not provided"}
	}

	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	s := defaultSettings()
	for _, opt := range options {
		opt(&s)
	}

	guarded := cache.Guard(transport)
	return &CachedRepository[T, ID]{
		store:       store,
		transport:   guarded,
		invalidator: cache.NewInvalidator(guarded, opts.ScanBatchSize, s.logger),
		opts:        opts,
		settings:    s,
		stats:       newCounters(),
	}, nil
}

// FindByID returns the entity with the given id, from cache when present.
func (c *CachedRepository[T, ID]) FindByID(ctx context.Context, id ID, filter *Filter, opts CallOptions) (T, error) {
	if c.transport == nil {
		var zero T
		return zero, cache.MissingTransport()
	}

	key := c.settings.deriver.Derive(c.opts.Prefix, id, filter, opts)
	return readThrough(ctx, c, key, func(ctx context.Context) (T, error) {
		return c.store.FindByID(ctx, id, filter, opts)
	})
}

// Find returns the entities matching filter, from cache when present.
func (c *CachedRepository[T, ID]) Find(ctx context.Context, filter *Filter, opts CallOptions) ([]T, error) {
	if c.transport == nil {
		return nil, cache.MissingTransport()
	}

	key := c.settings.deriver.Derive(c.opts.Prefix, nil, filter, opts)
	return readThrough(ctx, c, key, func(ctx context.Context) ([]T, error) {
		return c.store.Find(ctx, filter, opts)
	})
}

// ClearCache removes every entry of this repository's namespace and returns the count.
func (c *CachedRepository[T, ID]) ClearCache(ctx context.Context) (int64, error) {
	return c.invalidator.ClearNamespace(ctx, c.opts.Prefix)
}

// Mutate runs fn and clears the namespace when it succeeds. An error from fn is returned
// as is and leaves the cache untouched.
func (c *CachedRepository[T, ID]) Mutate(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	_, err := c.ClearCache(ctx)
	return err
}

// Create stores record through the backing store and clears the namespace.
// When the write commits but invalidation fails, the created record is returned
// together with the *cache.InvalidationError.
func (c *CachedRepository[T, ID]) Create(ctx context.Context, record T) (T, error) {
	w, err := c.writer()
	if err != nil {
		var zero T
		return zero, err
	}

	result, err := w.Create(ctx, record)
	if err != nil {
		return result, err
	}
	_, err = c.ClearCache(ctx)
	return result, err
}

// Update stores record through the backing store and clears the namespace.
func (c *CachedRepository[T, ID]) Update(ctx context.Context, record T) (T, error) {
	w, err := c.writer()
	if err != nil {
		var zero T
		return zero, err
	}

	result, err := w.Update(ctx, record)
	if err != nil {
		return result, err
	}
	_, err = c.ClearCache(ctx)
	return result, err
}

// Delete removes record through the backing store and clears the namespace.
func (c *CachedRepository[T, ID]) Delete(ctx context.Context, record T) error {
	w, err := c.writer()
	if err != nil {
		return err
	}

	if err := w.Delete(ctx, record); err != nil {
		return err
	}
	_, err = c.ClearCache(ctx)
	return err
}

// Wait blocks until every background cache population has finished. It may be called
// while reads are still running; writes started after the counter drains are not awaited.
func (c *CachedRepository[T, ID]) Wait() {
	c.pending.wait()
}

// Stats returns the current counters.
func (c *CachedRepository[T, ID]) Stats() Stats {
	return c.stats.snapshot()
}

// Prefix returns the namespace of this repository.
func (c *CachedRepository[T, ID]) Prefix() string {
	return c.opts.Prefix
}

// inflight counts background writes. Unlike sync.WaitGroup, add may race wait.
type inflight struct {
	mu   sync.Mutex
	n    int
	idle chan struct{}
}

func (f *inflight) add() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == 0 {
		f.idle = make(chan struct{})
	}
	f.n++
}

func (f *inflight) done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n--
	if f.n == 0 {
		close(f.idle)
	}
}

func (f *inflight) wait() {
	f.mu.Lock()
	if f.n == 0 {
		f.mu.Unlock()
		return
	}
	idle := f.idle
	f.mu.Unlock()
	<-idle
}

func (c *CachedRepository[T, ID]) writer() (Writer[T], error) {
	w, ok := c.store.(Writer[T])
	if !ok {
		return nil, ErrWritesUnsupported
	}
	return w, nil
}

// readThrough is GET, then the loader on a miss, then an advisory SET.
// Methods cannot declare type parameters, so the result type V is bound here.
func readThrough[T any, ID comparable, V any](ctx context.Context, c *CachedRepository[T, ID], key string, load func(context.Context) (V, error)) (V, error) {
	var zero V
	logger := c.settings.logger

	raw, found, err := c.transport.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	if found {
		var value V
		decodeErr := c.settings.codec.Unmarshal(raw, &value)
		if decodeErr == nil {
			c.stats.hits.Inc()
			logger.Debug("cache hit", zap.String("key", key))
			return value, nil
		}

		c.stats.corruptions.Inc()
		if !c.settings.corruptionAsMiss {
			return zero, &cache.CacheCorruptionError{Key: key, Err: decodeErr}
		}
		logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(decodeErr))
	}

	c.stats.misses.Inc()
	logger.Debug("cache miss", zap.String("key", key))

	value, err := load(ctx)
	if err != nil {
		c.stats.storeErrors.Inc()
		return zero, err
	}

	payload, err := c.settings.codec.Marshal(value)
	if err != nil {
		c.report(AdvisoryWrite{Key: key, Err: err})
		return value, nil
	}

	if c.settings.asyncPopulate {
		c.pending.add()
		go func() {
			defer c.pending.done()
			c.populate(context.WithoutCancel(ctx), key, payload)
		}()
	} else {
		c.populate(ctx, key, payload)
	}

	return value, nil
}

func (c *CachedRepository[T, ID]) populate(ctx context.Context, key string, payload []byte) {
	start := time.Now()
	err := c.transport.Set(ctx, key, payload, c.opts.TTL)
	c.report(AdvisoryWrite{Key: key, Err: err, Duration: time.Since(start)})
}

func (c *CachedRepository[T, ID]) report(write AdvisoryWrite) {
	if write.Failed() {
		c.stats.advisoryFailures.Inc()
		c.settings.logger.Warn("cache population failed",
			zap.String("key", write.Key),
			zap.Duration("duration", write.Duration),
			zap.Error(write.Err),
		)
	}
	if c.settings.advisoryHook != nil {
		c.settings.advisoryHook(write)
	}
}
