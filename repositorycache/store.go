package repositorycache

import (
	"context"
	"reflect"
	"strings"

	"github.com/goliatone/go-repository-kvcache/cache"
)

// Filter narrows a lookup. The cache treats it as opaque: it only feeds the key.
type Filter struct {
	Fields []string       `json:"fields,omitempty"`
	Where  map[string]any `json:"where,omitempty"`
	Order  []string       `json:"order,omitempty"`
	Limit  int            `json:"limit,omitempty"`
	Offset int            `json:"offset,omitempty"`
}

// CallOptions are per-call options forwarded to the backing store. They take part in
// the cache key, so two calls with different options never share an entry.
type CallOptions map[string]any

// BackingStore is the authoritative source behind the cache.
// Not-found failures must be returned as errors; the cache passes them through.
type BackingStore[T any, ID comparable] interface {
	FindByID(ctx context.Context, id ID, filter *Filter, opts CallOptions) (T, error)
	Find(ctx context.Context, filter *Filter, opts CallOptions) ([]T, error)
}

// Writer is implemented by backing stores that accept mutations.
type Writer[T any] interface {
	Create(ctx context.Context, record T) (T, error)
	Update(ctx context.Context, record T) (T, error)
	Delete(ctx context.Context, record T) error
}

// DefaultPrefix derives a snake_case namespace from the type name of T,
// e.g. ProductVariant becomes "product_variant".
func DefaultPrefix[T any]() string {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	for typ.Kind() == reflect.Pointer || typ.Kind() == reflect.Slice {
		typ = typ.Elem()
	}

	name := typ.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		name = typ.String()
	}
	return toSnake(name)
}

// DefaultOptions returns cache options namespaced by DefaultPrefix[T] with default TTL
// and scan batch size.
func DefaultOptions[T any]() cache.Options {
	return cache.Options{Prefix: DefaultPrefix[T]()}.WithDefaults()
}
