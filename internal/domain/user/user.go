package user

import (
	"context"
	"errors"
	"time"
)

// Role is the closed set of principal roles.
type Role string

const (
	// RoleCustomer places orders and sees only its own.
	RoleCustomer Role = "customer"
	// RoleStaff is operational: sees every non-draft order and may drive
	// arbitrary status corrections.
	RoleStaff Role = "staff"
)

func (r Role) IsStaff() bool {
	return r == RoleStaff
}

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email is already registered")
	ErrInvalidEmail = errors.New("email is required")
	ErrInvalidName  = errors.New("name is required")
	// ErrAccountExists is the guest-checkout conflict: the email belongs
	// to a full account, so the caller must authenticate instead.
	ErrAccountExists = errors.New("account exists, must authenticate")
)

// Principal is a user identity: either a full account or an ephemeral guest
// created during checkout. At most one principal exists per email.
type Principal struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsGuest      bool      `json:"is_guest"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is the persistence contract the user domain needs. The email
// uniqueness constraint of the backing table is the source of truth for
// identity deduplication; Create returns ErrEmailTaken when it is violated.
type Store interface {
	GetByID(ctx context.Context, id string) (*Principal, error)
	GetByEmail(ctx context.Context, email string) (*Principal, error)
	Create(ctx context.Context, p *Principal) error
	UpdatePhone(ctx context.Context, id, phone string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
