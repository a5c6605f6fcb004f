package repositorycache

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// testProduct represents a test entity
type testProduct struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Color string  `json:"color,omitempty"`
	Price float64 `json:"price"`
}

var errNotFound = errors.New("record not found")

// mockStore is an in-memory BackingStore and Writer that records calls
type mockStore struct {
	mu       sync.Mutex
	products map[int]testProduct
	calls    []string
	findErr  error
	writeErr error
}

func newMockStore(products ...testProduct) *mockStore {
	m := &mockStore{products: make(map[int]testProduct)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockStore) recordCall(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, method)
}

func (m *mockStore) callCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (m *mockStore) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockStore) FindByID(ctx context.Context, id int, filter *Filter, opts CallOptions) (testProduct, error) {
	m.recordCall("FindByID")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return testProduct{}, m.findErr
	}
	p, ok := m.products[id]
	if !ok {
		return testProduct{}, errNotFound
	}
	return p, nil
}

func (m *mockStore) Find(ctx context.Context, filter *Filter, opts CallOptions) ([]testProduct, error) {
	m.recordCall("Find")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}

	out := make([]testProduct, 0, len(m.products))
	for _, p := range m.products {
		if filter != nil {
			if color, ok := filter.Where["color"]; ok && p.Color != color {
				continue
			}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter != nil && filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *mockStore) Create(ctx context.Context, record testProduct) (testProduct, error) {
	m.recordCall("Create")
	return m.save(record)
}

func (m *mockStore) Update(ctx context.Context, record testProduct) (testProduct, error) {
	m.recordCall("Update")
	return m.save(record)
}

func (m *mockStore) Delete(ctx context.Context, record testProduct) error {
	m.recordCall("Delete")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	delete(m.products, record.ID)
	return nil
}

func (m *mockStore) save(record testProduct) (testProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return testProduct{}, m.writeErr
	}
	m.products[record.ID] = record
	return record, nil
}

// readOnlyStore hides the Writer methods of a mockStore
type readOnlyStore struct {
	inner *mockStore
}

func (r readOnlyStore) FindByID(ctx context.Context, id int, filter *Filter, opts CallOptions) (testProduct, error) {
	return r.inner.FindByID(ctx, id, filter, opts)
}

func (r readOnlyStore) Find(ctx context.Context, filter *Filter, opts CallOptions) ([]testProduct, error) {
	return r.inner.Find(ctx, filter, opts)
}
