// Package sessions maps opaque session tokens to the role that logged in.
package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"reelops/models"
)

// Store creates, resolves and destroys sessions. Get returns
// models.ErrSessionNotFound for unknown or expired tokens; Destroy is a no-op
// for them.
type Store interface {
	Create(ctx context.Context, role models.Role) (models.Session, error)
	Get(ctx context.Context, token string) (models.Session, error)
	Destroy(ctx context.Context, token string) error
}

const tokenBytes = 24

// NewToken returns 48 hex characters of crypto randomness.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func newSession(role models.Role, ttl time.Duration, now time.Time) (models.Session, error) {
	token, err := NewToken()
	if err != nil {
		return models.Session{}, err
	}
	s := models.Session{Token: token, Role: role, CreatedAt: now}
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl)
	}
	return s, nil
}
