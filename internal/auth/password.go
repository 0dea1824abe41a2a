package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

const (
	bcryptCost        = 12
	minPasswordLength = 8

	guestSecretBytes = 32
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateGuestCredentialHash returns the bcrypt hash of a random secret
// that is immediately discarded. Guest accounts never authenticate; the
// credential exists only to satisfy the identity model, and nobody can ever
// log in with it.
func GenerateGuestCredentialHash() (string, error) {
	buf := make([]byte, guestSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(buf)), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
