package httpx

import (
	"context"
	"net/http"

	"libraryapi/internal/authz"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// UserIDFrom retrieves the authenticated user ID from the request context.
func UserIDFrom(r *http.Request) string {
	if p, ok := authz.PrincipalFrom(r.Context()); ok {
		return p.UserID
	}
	return ""
}

// RoleFrom retrieves the authenticated user role from the request context.
func RoleFrom(r *http.Request) authz.Role {
	if p, ok := authz.PrincipalFrom(r.Context()); ok {
		return p.Role
	}
	return ""
}

// ContextWithRequestID returns a new context carrying the request ID.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFrom retrieves the request ID from the request context.
func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

const accessSlotKey contextKey = "accessSlot"

// accessSlot lets the access log observe what inner handlers learned about
// the request: the authenticated user and the cause of a 500.
type accessSlot struct {
	userID string
	err    error
}

func withAccessSlot(ctx context.Context, slot *accessSlot) context.Context {
	return context.WithValue(ctx, accessSlotKey, slot)
}

func recordUser(r *http.Request, userID string) {
	if slot, ok := r.Context().Value(accessSlotKey).(*accessSlot); ok {
		slot.userID = userID
	}
}

func recordError(r *http.Request, err error) {
	if slot, ok := r.Context().Value(accessSlotKey).(*accessSlot); ok {
		slot.err = err
	}
}
