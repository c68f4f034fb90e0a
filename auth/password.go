package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"reelops/models"
)

// Authenticator checks a claimed role against that role's configured secret.
// A secret starting with "$2" is treated as a bcrypt hash, anything else as
// plaintext.
type Authenticator struct {
	secrets map[models.Role]string
}

func NewAuthenticator(adminSecret, technicianSecret string) *Authenticator {
	return &Authenticator{secrets: map[models.Role]string{
		models.RoleAdmin:      adminSecret,
		models.RoleTechnician: technicianSecret,
	}}
}

// Verify reports whether password unlocks role. Unknown roles and empty
// secrets never match.
func (a *Authenticator) Verify(role models.Role, password string) bool {
	secret, ok := a.secrets[role]
	if !ok || secret == "" {
		return false
	}
	if isBcrypt(secret) {
		return bcrypt.CompareHashAndPassword([]byte(secret), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(password)) == 1
}

// Login resolves userType and password to a role.
func (a *Authenticator) Login(userType, password string) (models.Role, error) {
	role, ok := models.ParseRole(userType)
	if !ok || !a.Verify(role, password) {
		return "", models.ErrInvalidCredentials
	}
	return role, nil
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// HashPassword produces a bcrypt hash suitable for ADMIN_PASSWORD or
// TECHNICIAN_PASSWORD.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
