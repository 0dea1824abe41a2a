package user

import (
	"context"
	"strings"
	"time"

	"github.com/example/menu-orders/internal/auth"
	"github.com/google/uuid"
)

// Service handles principal registration and the guest checkout identity
// resolution flow.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register creates a full (non-guest) customer account.
func (s *Service) Register(ctx context.Context, email, password, name string) (*Principal, error) {
	return s.register(ctx, email, password, name, RoleCustomer)
}

// RegisterStaff creates an operational account.
func (s *Service) RegisterStaff(ctx context.Context, email, password, name string) (*Principal, error) {
	return s.register(ctx, email, password, name, RoleStaff)
}

func (s *Service) register(ctx context.Context, email, password, name string, role Role) (*Principal, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if name == "" {
		return nil, ErrInvalidName
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	p := &Principal{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ResolveGuest maps an email to a principal for guest checkout.
//
// An email bound to a full account is a hard conflict: the caller must
// authenticate, a duplicate identity is never created. A known guest is
// reused (idempotent re-checkout), updating the phone if it changed. An
// unknown email gets a fresh guest principal with a derived username and an
// unrecoverable random credential.
//
// Two concurrent checkouts for the same new email may both observe "no
// principal"; the email uniqueness constraint decides the winner, and the
// loser retries as a lookup-and-reuse instead of surfacing an error.
func (s *Service) ResolveGuest(ctx context.Context, email, name, phone string) (*Principal, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if name == "" {
		return nil, ErrInvalidName
	}

	existing, err := s.store.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return s.reuseGuest(ctx, existing, phone)
	case err != ErrUserNotFound:
		return nil, err
	}

	credentialHash, err := auth.GenerateGuestCredentialHash()
	if err != nil {
		return nil, err
	}

	guest := &Principal{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     guestUsername(email),
		Name:         name,
		Phone:        phone,
		PasswordHash: credentialHash,
		Role:         RoleCustomer,
		IsGuest:      true,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	err = s.store.Create(ctx, guest)
	if err == ErrEmailTaken {
		// Lost the creation race; the winner's row is authoritative.
		winner, lookupErr := s.store.GetByEmail(ctx, email)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return s.reuseGuest(ctx, winner, phone)
	}
	if err != nil {
		return nil, err
	}
	return guest, nil
}

func (s *Service) reuseGuest(ctx context.Context, p *Principal, phone string) (*Principal, error) {
	if !p.IsGuest {
		return nil, ErrAccountExists
	}
	if phone != "" && phone != p.Phone {
		if err := s.store.UpdatePhone(ctx, p.ID, phone); err != nil {
			return nil, err
		}
		p.Phone = phone
	}
	return p, nil
}

// ChangePassword replaces the principal's credential after validating the
// new password.
func (s *Service) ChangePassword(ctx context.Context, id, newPassword string) error {
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, id, hash)
}

// GetByID looks up a principal.
func (s *Service) GetByID(ctx context.Context, id string) (*Principal, error) {
	return s.store.GetByID(ctx, id)
}

// GetByEmail looks up a principal by normalized email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*Principal, error) {
	return s.store.GetByEmail(ctx, normalizeEmail(email))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// guestUsername derives a unique username from the email local part plus a
// short random suffix so repeated guests with the same local part never
// collide on the username constraint.
func guestUsername(email string) string {
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}
	suffix := uuid.New().String()[:8]
	return local + "-" + suffix
}
