// Package authz holds the closed set of roles and the authenticated principal
// carried through a request context.
package authz

import (
	"context"
	"fmt"

	"libraryapi/internal/apperr"
)

// Role is the authorization tier of a user.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleMember Role = "Member"
)

var (
	ErrUnauthorized = apperr.New(apperr.ErrUnauthorized, "Authentication required")
	ErrForbidden    = apperr.New(apperr.ErrForbidden, "Insufficient role")
)

// ParseRole converts a wire value into a Role. An empty value defaults to Member.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleMember, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleMember:
		return RoleMember, nil
	default:
		return "", apperr.New(apperr.ErrValidation, fmt.Sprintf("invalid role %q", s))
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// Principal is the caller identity extracted from a verified token.
type Principal struct {
	UserID string
	Role   Role
}

type contextKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

// Require returns the principal in ctx if its role is one of roles.
func Require(ctx context.Context, roles ...Role) (Principal, error) {
	p, ok := PrincipalFrom(ctx)
	if !ok || p.UserID == "" {
		return Principal{}, ErrUnauthorized
	}
	for _, r := range roles {
		if allows(r, p.Role) {
			return p, nil
		}
	}
	return Principal{}, ErrForbidden
}

func allows(required, actual Role) bool {
	switch required {
	case RoleAdmin:
		return actual == RoleAdmin
	case RoleMember:
		return actual == RoleMember
	default:
		return false
	}
}
