package mocks

import (
	"context"
	"sync"

	"github.com/example/menu-orders/internal/domain/order"
)

// MockOrderStore is an in-memory order.Store for testing.
type MockOrderStore struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*order.Order

	// For tracking calls and forcing failures in tests
	CreateCalls int
	CreateErr   error
	UpdateErr   error
}

func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{nextID: 1, orders: make(map[int64]*order.Order)}
}

func (m *MockOrderStore) Create(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if m.CreateErr != nil {
		return m.CreateErr
	}

	o.ID = m.nextID
	m.nextID++
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		o.Items[i].ID = int64(i + 1)
	}
	m.orders[o.ID] = copyOrder(o)
	return nil
}

func (m *MockOrderStore) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (m *MockOrderStore) ListByOwner(ctx context.Context, ownerID string) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*order.Order
	for _, o := range m.orders {
		if o.OwnerID == ownerID {
			out = append(out, copyOrder(o))
		}
	}
	return out, nil
}

func (m *MockOrderStore) ListActive(ctx context.Context) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*order.Order
	for _, o := range m.orders {
		if o.Status != order.StatusDraft {
			out = append(out, copyOrder(o))
		}
	}
	return out, nil
}

func (m *MockOrderStore) UpdateStatus(ctx context.Context, id int64, apply func(*order.Order) error) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}

	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}

	working := copyOrder(o)
	if err := apply(working); err != nil {
		return nil, err
	}
	m.orders[id] = copyOrder(working)
	return working, nil
}

func copyOrder(o *order.Order) *order.Order {
	dup := *o
	dup.Items = make([]order.Item, len(o.Items))
	copy(dup.Items, o.Items)
	return &dup
}
