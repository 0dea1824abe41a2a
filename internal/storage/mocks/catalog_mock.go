package mocks

import (
	"context"
	"sync"

	"github.com/example/menu-orders/internal/catalog"
)

// MockCatalog is an in-memory catalog.Lookup for testing.
type MockCatalog struct {
	mu       sync.Mutex
	products map[int64]catalog.Product

	LookupErr error
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{products: make(map[int64]catalog.Product)}
}

// Add registers a product in the fake catalog.
func (m *MockCatalog) Add(p catalog.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *MockCatalog) Product(ctx context.Context, id int64) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	dup := p
	return &dup, nil
}
