package user

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=user

import (
	"context"
)

// Repository defines the contract for user storage. Emails passed in are
// already normalized.
type Repository interface {
	// Create assigns ID and timestamps. Returns ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
}
