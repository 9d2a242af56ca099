package book

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

import (
	"context"
)

// Repository defines the contract for book data storage.
type Repository interface {
	List(ctx context.Context, q Query) ([]Book, int, error)
	GetByID(ctx context.Context, id string) (Book, error)
	// Create stores b with Copies equal to TotalCopies and assigns ID and timestamps.
	Create(ctx context.Context, b *Book) error
	// Update applies p atomically with respect to concurrent borrows.
	Update(ctx context.Context, id string, p Patch) (Book, error)
	// Delete removes the book and its returned borrow records. It fails with
	// ErrOnLoan while any copy is on loan.
	Delete(ctx context.Context, id string) error
}
