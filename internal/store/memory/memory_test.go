package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/book"
	"libraryapi/internal/borrow"
	"libraryapi/internal/user"
)

// newClockedStore returns a store whose clock advances one second per call.
func newClockedStore() *Store {
	s := New()
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		t = t.Add(time.Second)
		return t
	}
	return s
}

func seedBook(t *testing.T, s *Store, isbn, genre, author string, copies int) book.Book {
	t.Helper()
	b := &book.Book{Title: "T" + isbn, Author: author, ISBN: isbn, Genre: genre, TotalCopies: copies}
	require.NoError(t, s.Books().Create(context.Background(), b))
	return *b
}

func seedUser(t *testing.T, s *Store, email string) user.User {
	t.Helper()
	u := &user.User{Name: email, Email: email, Role: "Member"}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return *u
}

func TestUsers(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := seedUser(t, s, "a@example.com")
	assert.NotEmpty(t, u.ID)

	err := s.Users().Create(ctx, &user.User{Email: "a@example.com"})
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	got, err := s.Users().GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Users().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestBooks_ListFiltersAndPages(t *testing.T) {
	s := newClockedStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		seedBook(t, s, fmt.Sprintf("isbn-%d", i), "Fiction", "Ann", 1)
	}
	seedBook(t, s, "isbn-x", "History", "Bob", 1)

	page, total, err := s.Books().List(ctx, book.Query{Page: 2, Limit: 2, Genre: "Fiction"})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "isbn-2", page[0].ISBN)
	assert.Equal(t, "isbn-3", page[1].ISBN)

	page, total, err = s.Books().List(ctx, book.Query{Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Empty(t, page)

	page, _, err = s.Books().List(ctx, book.Query{Page: 1, Limit: 10, Author: "Bob"})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "History", page[0].Genre)
}

func TestBooks_ListUnnormalizedQuery(t *testing.T) {
	s := newClockedStore()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		seedBook(t, s, fmt.Sprintf("isbn-%d", i), "Fiction", "Ann", 1)
	}

	page, total, err := s.Books().List(ctx, book.Query{Page: 0, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "isbn-0", page[0].ISBN)

	page, _, err = s.Books().List(ctx, book.Query{Page: -4})
	require.NoError(t, err)
	assert.Len(t, page, 3)
}

func TestBooks_CreateAndUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()
	b := seedBook(t, s, "isbn-1", "Fiction", "Ann", 2)
	assert.Equal(t, 2, b.Copies)
	seedBook(t, s, "isbn-2", "Fiction", "Ann", 1)

	err := s.Books().Create(ctx, &book.Book{ISBN: "isbn-1"})
	assert.ErrorIs(t, err, book.ErrDuplicateISBN)

	taken := "isbn-2"
	_, err = s.Books().Update(ctx, b.ID, book.Patch{ISBN: &taken})
	assert.ErrorIs(t, err, book.ErrDuplicateISBN)

	title := "New"
	updated, err := s.Books().Update(ctx, b.ID, book.Patch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "isbn-1", updated.ISBN)

	_, err = s.Books().Update(ctx, "missing", book.Patch{Title: &title})
	assert.ErrorIs(t, err, book.ErrNotFound)
}

func TestBooks_DeleteRemovesReturnedHistory(t *testing.T) {
	s := New()
	ctx := context.Background()
	b := seedBook(t, s, "isbn-1", "Fiction", "Ann", 1)
	u := seedUser(t, s, "a@example.com")
	now := time.Now().UTC()

	d, err := s.Borrows().Borrow(ctx, u.ID, b.ID, now)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Books().Delete(ctx, b.ID), book.ErrOnLoan)

	_, err = s.Borrows().Return(ctx, u.ID, d.ID, now)
	require.NoError(t, err)
	require.NoError(t, s.Books().Delete(ctx, b.ID))

	history, err := s.Borrows().History(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.ErrorIs(t, s.Books().Delete(ctx, b.ID), book.ErrNotFound)
}

func TestBorrows_UnknownUser(t *testing.T) {
	s := New()
	b := seedBook(t, s, "isbn-1", "Fiction", "Ann", 1)

	_, err := s.Borrows().Borrow(context.Background(), "ghost", b.ID, time.Now())
	assert.ErrorIs(t, err, user.ErrNotFound)

	got, err := s.Books().GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Copies)
}

func TestBorrows_AvailabilityEmpty(t *testing.T) {
	s := New()
	avail, err := s.Borrows().Availability(context.Background())
	require.NoError(t, err)
	assert.Equal(t, borrow.Availability{}, avail)
}

func TestStore_CancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
	_, _, err := s.Books().List(ctx, book.Query{Limit: 10})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Borrows().Borrow(ctx, "u", "b", time.Now())
	assert.ErrorIs(t, err, context.Canceled)

	// the lock must not be held after a cancelled call
	assert.NoError(t, s.Ping(context.Background()))
	_, _, err = s.Books().List(context.Background(), book.Query{Limit: 10})
	assert.NoError(t, err)
}
