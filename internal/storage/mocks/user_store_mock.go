package mocks

import (
	"context"
	"sync"

	"github.com/example/menu-orders/internal/domain/user"
)

// MockUserStore is an in-memory user.Store for testing. It enforces the
// email uniqueness invariant the way the real table's constraint does.
type MockUserStore struct {
	mu      sync.Mutex
	byID    map[string]*user.Principal
	byEmail map[string]*user.Principal

	// For tracking calls and forcing failures in tests
	CreateCalls int
	CreateErr   error
	// FailFirstCreate makes the first Create return ErrEmailTaken and stores
	// a winner row for the same email instead, simulating losing the
	// unique-email race to a concurrent checkout.
	FailFirstCreate bool
}

func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		byID:    make(map[string]*user.Principal),
		byEmail: make(map[string]*user.Principal),
	}
}

// Seed stores a principal directly, bypassing constraint checks.
func (m *MockUserStore) Seed(p *user.Principal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dup := *p
	m.byID[p.ID] = &dup
	m.byEmail[p.Email] = &dup
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*user.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	dup := *p
	return &dup, nil
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*user.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byEmail[email]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	dup := *p
	return &dup, nil
}

func (m *MockUserStore) Create(ctx context.Context, p *user.Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if m.FailFirstCreate && m.CreateCalls == 1 {
		winner := *p
		winner.ID = "winner-" + p.ID
		m.byID[winner.ID] = &winner
		m.byEmail[winner.Email] = &winner
		return user.ErrEmailTaken
	}
	if _, exists := m.byEmail[p.Email]; exists {
		return user.ErrEmailTaken
	}

	dup := *p
	m.byID[p.ID] = &dup
	m.byEmail[p.Email] = &dup
	return nil
}

func (m *MockUserStore) UpdatePhone(ctx context.Context, id, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[id]
	if !ok {
		return user.ErrUserNotFound
	}
	p.Phone = phone
	return nil
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[id]
	if !ok {
		return user.ErrUserNotFound
	}
	p.PasswordHash = passwordHash
	return nil
}
