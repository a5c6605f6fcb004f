// Package cache provides the building blocks of the read-through repository cache:
// the key-value Transport contract, key derivation, value codecs and namespace
// invalidation.
//
// # Overview
//
//   - Transport: GET / SET with expiry / DEL against a key-value store, plus the optional
//     Scanner (SCAN) and KeyLister (KEYS) capabilities used for invalidation
//   - KeyDeriver: builds prefix[_id][_filter][_options] keys
//   - Codec: JSONCodec (default) and MsgpackCodec
//   - Invalidator: clears every key of a namespace
//
// # Transports
//
// Two backends ship with the package:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	transport := cache.NewRedisTransport(client)
//
//	memory, err := cache.NewMemoryTransport(cache.DefaultMemoryConfig())
//
// Custom backends implement Transport and are wrapped with Guard, which turns every
// backend failure into a *TransportError. A GET miss is never an error: it is reported
// as found == false.
//
// # Key Derivation
//
//	key := cache.DeriveKey("product", 7, filter, nil)
//	// product_7_{"limit":10,"where":{"color":"red"}}
//
// Options passed without a filter leave an empty filter slot, and string ids containing the
// separator are quoted, so segments never shift into one another.
//
// Filters and options are serialized as canonical JSON with sorted object keys, so
// equivalent filters always share one entry. Long segments can be replaced by an
// xxhash digest through KeyDeriver.MaxSegmentLength.
//
// # Invalidation
//
//	inv := cache.NewInvalidator(transport, 100, logger)
//	removed, err := inv.ClearNamespace(ctx, "product")
//
// Scanner transports are walked with SCAN until the cursor returns to 0; KeyLister
// transports issue a single KEYS call. Matching keys are removed with one DEL. Any
// failure returns an *InvalidationError and nothing is deleted.
//
// Prefixes are matched as plain string prefixes: clearing "product" also clears keys of
// a "products" namespace, so pick prefixes that do not extend one another.
//
// # See Also
//
// For the repository decorator built on these pieces, see the repositorycache package.
package cache
