package cache

import (
	"context"
	"errors"
	"time"
)

// Guard wraps t so that every backend failure surfaces as a *TransportError.
// Scanner and KeyLister capabilities of t are preserved. Guarding twice is a no-op.
func Guard(t Transport) Transport {
	if t == nil {
		return nil
	}
	switch t.(type) {
	case *guardedTransport, *guardedScanner, *guardedLister:
		return t
	}

	g := &guardedTransport{next: t}
	if s, ok := t.(Scanner); ok {
		return &guardedScanner{guardedTransport: g, scanner: s}
	}
	if l, ok := t.(KeyLister); ok {
		return &guardedLister{guardedTransport: g, lister: l}
	}
	return g
}

type guardedTransport struct {
	next Transport
}

func (g *guardedTransport) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, found, err := g.next.Get(ctx, key)
	if err != nil {
		return nil, false, wrapTransport("GET", key, err)
	}
	if found && value == nil {
		value = []byte{}
	}
	return value, found, nil
}

func (g *guardedTransport) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := g.next.Set(ctx, key, value, ttl); err != nil {
		return wrapTransport("SET", key, err)
	}
	return nil
}

func (g *guardedTransport) Del(ctx context.Context, keys ...string) (int64, error) {
	n, err := g.next.Del(ctx, keys...)
	if err != nil {
		return 0, wrapTransport("DEL", "", err)
	}
	return n, nil
}

func (g *guardedTransport) Close() error {
	if c, ok := g.next.(Closer); ok {
		return c.Close()
	}
	return nil
}

type guardedScanner struct {
	*guardedTransport
	scanner Scanner
}

func (g *guardedScanner) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	keys, next, err := g.scanner.Scan(ctx, cursor, match, count)
	if err != nil {
		return nil, 0, wrapTransport("SCAN", match, err)
	}
	return keys, next, nil
}

type guardedLister struct {
	*guardedTransport
	lister KeyLister
}

func (g *guardedLister) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := g.lister.Keys(ctx, pattern)
	if err != nil {
		return nil, wrapTransport("KEYS", pattern, err)
	}
	return keys, nil
}

func wrapTransport(op, key string, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Key: key, Err: err}
}
