package user

import (
	"strings"
	"time"

	"libraryapi/internal/apperr"
	"libraryapi/internal/authz"
)

var (
	ErrNotFound   = apperr.New(apperr.ErrNotFound, "User not found")
	ErrEmailTaken = apperr.New(apperr.ErrInvalidState, "Email already in use")
)

// User is a library account. PasswordHash never leaves the process.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         authz.Role `json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// NormalizeEmail is the stored form of an email; uniqueness is checked on it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseStoredRole reads a persisted role, falling back to Member for unknown values.
func ParseStoredRole(s string) authz.Role {
	role, err := authz.ParseRole(s)
	if err != nil {
		return authz.RoleMember
	}
	return role
}
