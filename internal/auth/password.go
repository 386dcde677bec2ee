package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// SetPassword validates complexity and stores a fresh hash on the user.
func SetPassword(user *domain.User, plain string, cost int) error {
	if err := domain.ValidatePassword(plain); err != nil {
		return err
	}
	hashed, err := HashPassword(plain, cost)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	return nil
}

// CheckPassword reports whether plain matches the user's stored credential.
func CheckPassword(user *domain.User, plain string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	return ComparePassword(user.PasswordHash, plain) == nil
}
