package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"libraryapi/internal/book"
	"libraryapi/internal/borrow"
	"libraryapi/internal/user"
)

// Borrows implements borrow.Repository.
type Borrows struct {
	s *Store
}

var _ borrow.Repository = (*Borrows)(nil)

func (r *Borrows) Borrow(ctx context.Context, userID, bookID string, at time.Time) (borrow.Detail, error) {
	if err := r.s.lock(ctx); err != nil {
		return borrow.Detail{}, err
	}
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return borrow.Detail{}, user.ErrNotFound
	}
	b, ok := r.s.books[bookID]
	if !ok {
		return borrow.Detail{}, book.ErrNotFound
	}
	if b.Copies < 1 {
		return borrow.Detail{}, borrow.ErrUnavailable
	}

	b.Copies--
	b.UpdatedAt = at
	r.s.books[bookID] = b

	rec := borrow.Record{
		ID:         newID(),
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: at,
		CreatedAt:  at,
	}
	r.s.borrows[rec.ID] = rec
	return borrow.Detail{Record: rec, Book: b, User: u}, nil
}

func (r *Borrows) Return(ctx context.Context, userID, borrowID string, at time.Time) (borrow.Record, error) {
	if err := r.s.lock(ctx); err != nil {
		return borrow.Record{}, err
	}
	defer r.s.mu.Unlock()

	rec, ok := r.s.borrows[borrowID]
	if !ok {
		return borrow.Record{}, borrow.ErrNotFound
	}
	if rec.UserID != userID {
		return borrow.Record{}, borrow.ErrNotOwner
	}
	if rec.IsReturned {
		return borrow.Record{}, borrow.ErrAlreadyReturned
	}
	b, ok := r.s.books[rec.BookID]
	if !ok || b.Copies >= b.TotalCopies {
		return borrow.Record{}, fmt.Errorf("restore copy of book %s: shelf count already at total", rec.BookID)
	}

	b.Copies++
	b.UpdatedAt = at
	r.s.books[b.ID] = b

	returned := at
	rec.IsReturned = true
	rec.ReturnDate = &returned
	r.s.borrows[rec.ID] = rec
	return rec, nil
}

func (r *Borrows) History(ctx context.Context, userID string) ([]borrow.Detail, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	history := []borrow.Detail{}
	for _, rec := range r.s.borrows {
		if rec.UserID != userID {
			continue
		}
		history = append(history, borrow.Detail{
			Record: rec,
			Book:   r.s.books[rec.BookID],
			User:   r.s.users[rec.UserID],
		})
	}
	slices.SortFunc(history, func(a, b borrow.Detail) int {
		if c := a.BorrowDate.Compare(b.BorrowDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return history, nil
}

type ranked struct {
	id    string
	count int
}

// rank counts records by key and returns the top limit, count desc then id asc.
func rank(records map[string]borrow.Record, keep func(borrow.Record) bool, key func(borrow.Record) string, limit int) []ranked {
	counts := map[string]int{}
	for _, rec := range records {
		if keep(rec) {
			counts[key(rec)]++
		}
	}
	rows := make([]ranked, 0, len(counts))
	for id, n := range counts {
		rows = append(rows, ranked{id: id, count: n})
	}
	slices.SortFunc(rows, func(a, b ranked) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func (r *Borrows) MostBorrowed(ctx context.Context, limit int) ([]borrow.BookCount, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	rows := rank(r.s.borrows,
		func(borrow.Record) bool { return true },
		func(rec borrow.Record) string { return rec.BookID },
		limit)
	result := make([]borrow.BookCount, 0, len(rows))
	for _, row := range rows {
		if b, ok := r.s.books[row.id]; ok {
			result = append(result, borrow.BookCount{Book: b, Count: row.count})
		}
	}
	return result, nil
}

func (r *Borrows) ActiveMembers(ctx context.Context, limit int) ([]borrow.MemberCount, error) {
	if err := r.s.lock(ctx); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	rows := rank(r.s.borrows,
		func(rec borrow.Record) bool { return rec.IsReturned },
		func(rec borrow.Record) string { return rec.UserID },
		limit)
	result := make([]borrow.MemberCount, 0, len(rows))
	for _, row := range rows {
		if u, ok := r.s.users[row.id]; ok {
			result = append(result, borrow.MemberCount{User: u, Count: row.count})
		}
	}
	return result, nil
}

func (r *Borrows) Availability(ctx context.Context) (borrow.Availability, error) {
	if err := r.s.lock(ctx); err != nil {
		return borrow.Availability{}, err
	}
	defer r.s.mu.Unlock()

	var total, available int
	for _, b := range r.s.books {
		total += b.TotalCopies
		available += b.Copies
	}
	return borrow.NewAvailability(total, available), nil
}
