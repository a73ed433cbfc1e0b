package domain

import (
	"strings"
	"time"
)

// Roles accepted for a user. Input is matched case-insensitively at the API boundary.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents a person tasks can be assigned to.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch stamps the user for persistence: CreatedAt is set once, UpdatedAt on every call.
func (u *User) Touch(now time.Time) {
	if u == nil {
		return
	}
	u.UpdatedAt = now
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
}

// NormalizeRole upper-cases a role value. It does not validate it.
func NormalizeRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}

// IsValidRole reports whether role is one of the canonical upper-case roles.
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
