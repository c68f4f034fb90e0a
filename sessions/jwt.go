package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"reelops/models"
)

// Claims carried by a cookie session.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTStore issues self-contained signed tokens, so the cookie itself is the
// session. Logout revokes the token id until its natural expiry.
type JWTStore struct {
	secret []byte
	ttl    time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewJWTStore(secret string, ttl time.Duration) *JWTStore {
	return &JWTStore{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: make(map[string]time.Time),
	}
}

func (s *JWTStore) Create(_ context.Context, role models.Role) (models.Session, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
			Subject:  role.String(),
		},
	}
	sess := models.Session{Role: role, CreatedAt: now}
	if s.ttl > 0 {
		sess.ExpiresAt = now.Add(s.ttl)
		claims.ExpiresAt = jwt.NewNumericDate(sess.ExpiresAt)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return models.Session{}, fmt.Errorf("sign session: %w", err)
	}
	sess.Token = token
	return sess, nil
}

func (s *JWTStore) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, models.ErrSessionNotFound
	}
	return claims, nil
}

func (s *JWTStore) Get(_ context.Context, token string) (models.Session, error) {
	if token == "" {
		return models.Session{}, models.ErrSessionNotFound
	}
	claims, err := s.parse(token)
	if err != nil {
		return models.Session{}, err
	}
	if _, ok := models.ParseRole(claims.Role.String()); !ok {
		return models.Session{}, models.ErrSessionNotFound
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return models.Session{}, models.ErrSessionNotFound
	}

	sess := models.Session{Token: token, Role: claims.Role}
	if claims.IssuedAt != nil {
		sess.CreatedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

func (s *JWTStore) Destroy(_ context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	var until time.Time
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}

	now := time.Now()
	s.mu.Lock()
	for id, exp := range s.revoked {
		if !exp.IsZero() && now.After(exp) {
			delete(s.revoked, id)
		}
	}
	s.revoked[claims.ID] = until
	s.mu.Unlock()
	return nil
}
