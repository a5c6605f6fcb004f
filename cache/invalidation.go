package cache

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Invalidator removes every cache entry that belongs to a namespace.
type Invalidator struct {
	transport Transport
	batchSize int64
	logger    *zap.Logger
}

// NewInvalidator creates an Invalidator. A non-positive batchSize uses DefaultScanBatchSize
// and a nil logger discards output. A nil transport is accepted and reported on use.
func NewInvalidator(transport Transport, batchSize int64, logger *zap.Logger) *Invalidator {
	if batchSize <= 0 {
		batchSize = DefaultScanBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invalidator{
		transport: Guard(transport),
		batchSize: batchSize,
		logger:    logger,
	}
}

// ClearNamespace deletes every key matching prefix* and returns the number removed.
// Keys are collected first and removed with a single DEL; nothing is deleted when any
// enumeration step fails. An empty prefix would match the whole keyspace and is rejected.
func (i *Invalidator) ClearNamespace(ctx context.Context, prefix string) (int64, error) {
	if i == nil || i.transport == nil {
		return 0, MissingTransport()
	}
	if prefix == "" {
		return 0, &ConfigurationError{Field: "Prefix", Message: "cannot be blank"}
	}

	keys, err := i.matchingKeys(ctx, NamespacePattern(prefix))
	if err != nil {
		return 0, &InvalidationError{Prefix: prefix, Stage: "scan", Err: err}
	}

	if len(keys) == 0 {
		i.logger.Debug("namespace already empty", zap.String("prefix", prefix))
		return 0, nil
	}

	removed, err := i.transport.Del(ctx, keys...)
	if err != nil {
		return 0, &InvalidationError{Prefix: prefix, Stage: "delete", Err: err}
	}

	i.logger.Info("namespace cleared",
		zap.String("prefix", prefix),
		zap.Int("matched", len(keys)),
		zap.Int64("removed", removed),
	)
	return removed, nil
}

func (i *Invalidator) matchingKeys(ctx context.Context, pattern string) ([]string, error) {
	switch t := i.transport.(type) {
	case Scanner:
		return scanAll(ctx, t, pattern, i.batchSize)
	case KeyLister:
		keys, err := t.Keys(ctx, pattern)
		if err != nil {
			return nil, err
		}
		return dedupeStrings(keys), nil
	default:
		return nil, ErrScanUnsupported
	}
}

// scanAll walks the SCAN cursor from 0 until the server hands back 0 again.
func scanAll(ctx context.Context, s Scanner, pattern string, batchSize int64) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, next, err := s.Scan(ctx, cursor, pattern, batchSize)
		if err != nil {
			return nil, err
		}
		keys = append(keys, page...)

		if next == 0 {
			break
		}
		cursor = next
	}
	// SCAN may return a key more than once while the keyspace is rehashing.
	return dedupeStrings(keys), nil
}

// NamespacePattern returns the glob pattern matching every key under prefix.
// Glob metacharacters inside the prefix are escaped.
func NamespacePattern(prefix string) string {
	var b strings.Builder
	b.Grow(len(prefix) + 1)
	for _, r := range prefix {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('*')
	return b.String()
}

func dedupeStrings(in []string) []string {
	if len(in) < 2 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
