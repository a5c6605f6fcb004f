// Package repositorycache provides a read-through cache decorator for backing stores.
//
// # Overview
//
// CachedRepository wraps a BackingStore and serves FindByID and Find from a cache.Transport
// when possible. Entries live under a per-repository namespace (the Prefix in cache.Options)
// and expire after the configured TTL.
//
// # Key Features
//
//   - **Type-safe caching**: entities and ids are type parameters
//   - **Advisory population**: a failed SET is logged and reported, never returned
//   - **Namespace invalidation**: ClearCache removes every entry of the repository
//   - **Write helpers**: Create, Update, Delete and Mutate clear the namespace on success
//   - **go-repository-bun support**: NewBunStore adapts a bun repository
//
// # Basic Usage
//
//	transport := cache.NewRedisTransport(redisClient)
//	store := repositorycache.NewBunStore[Product](productRepo)
//
//	products, err := repositorycache.New[Product, string](store, transport, cache.Options{
//		Prefix: "product",
//		TTL:    time.Minute,
//	}, repositorycache.WithLogger(logger))
//
//	p, err := products.FindByID(ctx, "7", nil, nil)
//	list, err := products.Find(ctx, &repositorycache.Filter{Where: map[string]any{"color": "red"}}, nil)
//
// # Caching Behavior
//
//  1. Fail with *cache.ConfigurationError when no transport is wired
//  2. Derive the key from prefix, id, filter and call options
//  3. GET the key; a hit is decoded and returned
//  4. On a miss call the backing store; its errors are returned unchanged
//  5. SET the encoded result with the TTL and return the store's answer
//
// A GET failure is returned as a *cache.TransportError. An entry that cannot be decoded
// yields a *cache.CacheCorruptionError unless WithCorruptionAsMiss is set, in which case
// the store is queried and the entry overwritten.
//
// Concurrent misses on one key are not coalesced: each caller queries the store and the
// last SET wins. A SET landing after a ClearCache can bring a stale entry back until its
// TTL expires.
//
// # Writes
//
// Create, Update and Delete require the store to implement Writer. After a committed write
// the namespace is cleared; if that fails the write's result is returned together with the
// *cache.InvalidationError so callers know the cache may be stale.
//
// # See Also
//
// For transports, key derivation and invalidation, see the cache package.
// For dependency injection setup, see the pkg/di package.
package repositorycache
