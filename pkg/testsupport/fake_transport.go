package testsupport

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-repository-kvcache/internal/cacheinfra"
)

type fakeEntry struct {
	value     []byte
	ttl       time.Duration
	expiresAt time.Time
}

type failure struct {
	after int
	err   error
}

// FakeTransport is an in-memory, scriptable cache transport for tests.
//
// SCAN walks the keyspace in sorted order, examining PageSize keys per call the way a
// Redis server examines COUNT slots, so a page may hold fewer matches than PageSize and a
// non-zero cursor may come back with an empty page.
type FakeTransport struct {
	mu       sync.Mutex
	entries  map[string]fakeEntry
	calls    []string
	counts   map[string]int
	failures map[string]failure
	clock    time.Time

	// PageSize is the number of keys examined per SCAN call. Default 10.
	PageSize int
}

// NewFakeTransport returns an empty FakeTransport supporting GET, SET, DEL and SCAN.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		entries:  make(map[string]fakeEntry),
		counts:   make(map[string]int),
		failures: make(map[string]failure),
		clock:    time.Unix(0, 0),
		PageSize: 10,
	}
}

// Put seeds an entry without expiry and without recording a call.
func (f *FakeTransport) Put(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = fakeEntry{value: []byte(value)}
}

// Has reports whether key holds a live entry.
func (f *FakeTransport) Has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.live(key)
	return ok
}

// Value returns the raw payload stored under key.
func (f *FakeTransport) Value(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.live(key)
	return string(e.value), ok
}

// TTL returns the expiry passed to the last SET of key.
func (f *FakeTransport) TTL(key string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[key].ttl
}

// StoredKeys returns every live key in sorted order.
func (f *FakeTransport) StoredKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedLiveKeys()
}

// Advance moves the fake clock forward, expiring entries whose TTL elapsed.
func (f *FakeTransport) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(d)
}

// FailOn makes every call of cmd (GET, SET, DEL, SCAN or KEYS) return err.
func (f *FakeTransport) FailOn(cmd string, err error) {
	f.FailAfter(cmd, 0, err)
}

// FailAfter lets n calls of cmd succeed and fails the following ones with err.
func (f *FakeTransport) FailAfter(cmd string, n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[cmd] = failure{after: n, err: err}
}

// Calls returns how many times cmd was issued.
func (f *FakeTransport) Calls(cmd string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[cmd]
}

// CallLog returns the issued commands in order.
func (f *FakeTransport) CallLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeTransport) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(ctx, "GET"); err != nil {
		return nil, false, err
	}

	e, ok := f.live(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, e.value...), true, nil
}

func (f *FakeTransport) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(ctx, "SET"); err != nil {
		return err
	}

	e := fakeEntry{value: append([]byte{}, value...), ttl: ttl}
	if ttl > 0 {
		e.expiresAt = f.clock.Add(ttl)
	}
	f.entries[key] = e
	return nil
}

func (f *FakeTransport) Del(ctx context.Context, keys ...string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(ctx, "DEL"); err != nil {
		return 0, err
	}

	var removed int64
	for _, key := range keys {
		if _, ok := f.live(key); ok {
			removed++
		}
		delete(f.entries, key)
	}
	return removed, nil
}

func (f *FakeTransport) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(ctx, "SCAN"); err != nil {
		return nil, 0, err
	}

	all := f.sortedLiveKeys()
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	start := int(cursor)
	if start >= len(all) {
		return nil, 0, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}

	var page []string
	for _, key := range all[start:end] {
		if cacheinfra.MatchGlob(match, key) {
			page = append(page, key)
		}
	}

	if end == len(all) {
		return page, 0, nil
	}
	return page, uint64(end), nil
}

func (f *FakeTransport) keys(ctx context.Context, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(ctx, "KEYS"); err != nil {
		return nil, err
	}

	var keys []string
	for _, key := range f.sortedLiveKeys() {
		if cacheinfra.MatchGlob(pattern, key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// KeysOnly returns a view of f that lists keys with KEYS and cannot SCAN.
func (f *FakeTransport) KeysOnly() *FakeKeysTransport {
	return &FakeKeysTransport{fake: f}
}

// Basic returns a view of f that can neither SCAN nor list keys.
func (f *FakeTransport) Basic() *FakeBasicTransport {
	return &FakeBasicTransport{fake: f}
}

func (f *FakeTransport) record(ctx context.Context, cmd string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.calls = append(f.calls, cmd)
	f.counts[cmd]++

	if fail, ok := f.failures[cmd]; ok && f.counts[cmd] > fail.after {
		return fail.err
	}
	return nil
}

func (f *FakeTransport) live(key string) (fakeEntry, bool) {
	e, ok := f.entries[key]
	if !ok {
		return fakeEntry{}, false
	}
	if !e.expiresAt.IsZero() && !f.clock.Before(e.expiresAt) {
		delete(f.entries, key)
		return fakeEntry{}, false
	}
	return e, true
}

func (f *FakeTransport) sortedLiveKeys() []string {
	keys := make([]string, 0, len(f.entries))
	for key := range f.entries {
		if _, ok := f.live(key); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// FakeKeysTransport exposes a FakeTransport without the SCAN capability.
type FakeKeysTransport struct {
	fake *FakeTransport
}

func (k *FakeKeysTransport) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return k.fake.Get(ctx, key)
}

func (k *FakeKeysTransport) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return k.fake.Set(ctx, key, value, ttl)
}

func (k *FakeKeysTransport) Del(ctx context.Context, keys ...string) (int64, error) {
	return k.fake.Del(ctx, keys...)
}

func (k *FakeKeysTransport) Keys(ctx context.Context, pattern string) ([]string, error) {
	return k.fake.keys(ctx, pattern)
}

// FakeBasicTransport exposes only GET, SET and DEL.
type FakeBasicTransport struct {
	fake *FakeTransport
}

func (b *FakeBasicTransport) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return b.fake.Get(ctx, key)
}

func (b *FakeBasicTransport) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.fake.Set(ctx, key, value, ttl)
}

func (b *FakeBasicTransport) Del(ctx context.Context, keys ...string) (int64, error) {
	return b.fake.Del(ctx, keys...)
}
