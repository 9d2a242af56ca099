// Package memory is a process-local store for tests and local development.
// One mutex guards every map, so each repository call is atomic.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"libraryapi/internal/book"
	"libraryapi/internal/borrow"
	"libraryapi/internal/user"
)

type Store struct {
	mu      sync.Mutex
	users   map[string]user.User
	books   map[string]book.Book
	borrows map[string]borrow.Record
	now     func() time.Time
}

func New() *Store {
	return &Store{
		users:   make(map[string]user.User),
		books:   make(map[string]book.Book),
		borrows: make(map[string]borrow.Record),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() *Users     { return &Users{s: s} }
func (s *Store) Books() *Books     { return &Books{s: s} }
func (s *Store) Borrows() *Borrows { return &Borrows{s: s} }

// Ping always succeeds; it lets the store stand in wherever a backend is
// health checked.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func newID() string {
	return uuid.NewString()
}

// lock acquires the store mutex unless ctx is already done.
func (s *Store) lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	return nil
}
