package memory

import (
	"cmp"
	"context"
	"slices"

	"libraryapi/internal/book"
)

// Books implements book.Repository.
type Books struct {
	s *Store
}

var _ book.Repository = (*Books)(nil)

func (r *Books) List(ctx context.Context, q book.Query) ([]book.Book, int, error) {
	q = q.Normalize()
	if err := r.s.lock(ctx); err != nil {
		return nil, 0, err
	}
	defer r.s.mu.Unlock()

	matched := make([]book.Book, 0, len(r.s.books))
	for _, b := range r.s.books {
		if q.Genre != "" && b.Genre != q.Genre {
			continue
		}
		if q.Author != "" && b.Author != q.Author {
			continue
		}
		matched = append(matched, b)
	}
	slices.SortFunc(matched, func(a, b book.Book) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	total := len(matched)
	start := min(q.Offset(), total)
	end := min(start+q.Limit, total)
	return matched[start:end], total, nil
}

func (r *Books) GetByID(ctx context.Context, id string) (book.Book, error) {
	if err := r.s.lock(ctx); err != nil {
		return book.Book{}, err
	}
	defer r.s.mu.Unlock()

	b, ok := r.s.books[id]
	if !ok {
		return book.Book{}, book.ErrNotFound
	}
	return b, nil
}

func (r *Books) isbnTaken(isbn, exceptID string) bool {
	for _, b := range r.s.books {
		if b.ISBN == isbn && b.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *Books) Create(ctx context.Context, b *book.Book) error {
	if err := r.s.lock(ctx); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if r.isbnTaken(b.ISBN, "") {
		return book.ErrDuplicateISBN
	}
	now := r.s.now()
	b.ID = newID()
	b.Copies = b.TotalCopies
	b.CreatedAt = now
	b.UpdatedAt = now
	r.s.books[b.ID] = *b
	return nil
}

func (r *Books) Update(ctx context.Context, id string, p book.Patch) (book.Book, error) {
	if err := r.s.lock(ctx); err != nil {
		return book.Book{}, err
	}
	defer r.s.mu.Unlock()

	current, ok := r.s.books[id]
	if !ok {
		return book.Book{}, book.ErrNotFound
	}
	next, err := p.Apply(current)
	if err != nil {
		return book.Book{}, err
	}
	if r.isbnTaken(next.ISBN, id) {
		return book.Book{}, book.ErrDuplicateISBN
	}
	next.UpdatedAt = r.s.now()
	r.s.books[id] = next
	return next, nil
}

func (r *Books) Delete(ctx context.Context, id string) error {
	if err := r.s.lock(ctx); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	b, ok := r.s.books[id]
	if !ok {
		return book.ErrNotFound
	}
	if b.OnLoan() > 0 {
		return book.ErrOnLoan
	}
	for recID, rec := range r.s.borrows {
		if rec.BookID == id {
			delete(r.s.borrows, recID)
		}
	}
	delete(r.s.books, id)
	return nil
}
