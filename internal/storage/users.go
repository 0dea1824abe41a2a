package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/menu-orders/internal/domain/user"
	"github.com/lib/pq"
)

// pq error code for violating a unique constraint.
const uniqueViolation = "23505"

// UserStore persists principals in Postgres. The UNIQUE constraint on email
// is the invariant that deduplicates concurrent guest checkouts.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const selectUser = `SELECT id, email, username, name, phone, password_hash, role, is_guest, is_active, created_at FROM users`

func (s *UserStore) GetByID(ctx context.Context, id string) (*user.Principal, error) {
	return scanUser(s.db.QueryRowContext(ctx, selectUser+` WHERE id = $1`, id))
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*user.Principal, error) {
	return scanUser(s.db.QueryRowContext(ctx, selectUser+` WHERE email = $1`, email))
}

// Create inserts a principal. Losing the unique-email race surfaces as
// user.ErrEmailTaken so the caller can fall back to lookup-and-reuse.
func (s *UserStore) Create(ctx context.Context, p *user.Principal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, username, name, phone, password_hash, role, is_guest, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Email, p.Username, p.Name, p.Phone,
		p.PasswordHash, p.Role, p.IsGuest, p.IsActive, p.CreatedAt,
	)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return user.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) UpdatePhone(ctx context.Context, id, phone string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET phone = $1 WHERE id = $2`, phone, id)
	return err
}

func (s *UserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	return err
}

func scanUser(row *sql.Row) (*user.Principal, error) {
	var p user.Principal
	err := row.Scan(
		&p.ID, &p.Email, &p.Username, &p.Name, &p.Phone,
		&p.PasswordHash, &p.Role, &p.IsGuest, &p.IsActive, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
