package models

import "time"

type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleTechnician Role = "Technician"
)

// ParseRole accepts only the two known user types.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleTechnician:
		return RoleTechnician, true
	}
	return "", false
}

func (r Role) String() string { return string(r) }

// Session binds an opaque token to the role that logged in.
type Session struct {
	Token     string    `json:"token" bson:"token"`
	Role      Role      `json:"role" bson:"role"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	ExpiresAt time.Time `json:"expiresAt,omitempty" bson:"expires_at,omitempty"`
}

// Expired reports whether the session is past its expiry. A zero ExpiresAt
// never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
