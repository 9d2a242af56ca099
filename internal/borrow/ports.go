package borrow

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=borrow

import (
	"context"
	"time"
)

// Repository performs borrow and return atomically and serves the reports.
type Repository interface {
	// Borrow takes one copy of bookID off the shelf and records the loan.
	// Returns book.ErrNotFound, user.ErrNotFound or ErrUnavailable; on any
	// error nothing is written.
	Borrow(ctx context.Context, userID, bookID string, at time.Time) (Detail, error)
	// Return closes the loan and puts the copy back. Returns ErrNotFound,
	// ErrNotOwner or ErrAlreadyReturned; on any error nothing is written.
	Return(ctx context.Context, userID, borrowID string, at time.Time) (Record, error)
	// History lists the member's records by borrow date, oldest first.
	History(ctx context.Context, userID string) ([]Detail, error)
	// MostBorrowed ranks books by all-time borrow count, ties by book id.
	MostBorrowed(ctx context.Context, limit int) ([]BookCount, error)
	// ActiveMembers ranks members by returned borrows, ties by user id.
	ActiveMembers(ctx context.Context, limit int) ([]MemberCount, error)
	Availability(ctx context.Context) (Availability, error)
}
