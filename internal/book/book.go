package book

import (
	"strings"
	"time"

	"libraryapi/internal/apperr"
)

var (
	ErrNotFound      = apperr.New(apperr.ErrNotFound, "Book not found")
	ErrDuplicateISBN = apperr.New(apperr.ErrInvalidState, "A book with this ISBN already exists")
	ErrOnLoan        = apperr.New(apperr.ErrInvalidState, "Book has copies on loan")
	ErrCopiesOnLoan  = apperr.New(apperr.ErrInvalidState, "Copies cannot be lower than the number on loan")
)

// NormalizeISBN is the stored form of an ISBN: hyphens and spaces removed and
// a check digit X upper-cased. Uniqueness is checked on it.
func NormalizeISBN(isbn string) string {
	isbn = strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(isbn))
	return strings.ToUpper(isbn)
}

// DateLayout is the wire format of a publication date.
const DateLayout = "2006-01-02"

// Book is a catalog entry. Copies is the number currently on the shelf and
// never exceeds TotalCopies; the difference is the number on loan.
type Book struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn"`
	PublicationDate time.Time `json:"publicationDate"`
	Genre           string    `json:"genre"`
	TotalCopies     int       `json:"totalCopies"`
	Copies          int       `json:"copies"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// OnLoan is the number of copies currently borrowed.
func (b Book) OnLoan() int {
	return b.TotalCopies - b.Copies
}

// Query defines filters and pagination for listing books.
type Query struct {
	Page   int
	Limit  int
	Genre  string
	Author string
}

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Normalize clamps paging to valid values.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	q.Genre = strings.TrimSpace(q.Genre)
	q.Author = strings.TrimSpace(q.Author)
	return q
}

func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Input holds the fields of a new book.
type Input struct {
	Title           string
	Author          string
	ISBN            string
	PublicationDate time.Time
	Genre           string
	Copies          int
}

// Patch is a partial update. Nil fields are left unchanged. Copies sets the
// total; the shelf count moves by the same delta.
type Patch struct {
	Title           *string
	Author          *string
	ISBN            *string
	PublicationDate *time.Time
	Genre           *string
	Copies          *int
}

// Apply returns b with p applied, or ErrCopiesOnLoan if the new total is below
// the number of copies currently on loan.
func (p Patch) Apply(b Book) (Book, error) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.ISBN != nil {
		b.ISBN = *p.ISBN
	}
	if p.PublicationDate != nil {
		b.PublicationDate = *p.PublicationDate
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.Copies != nil {
		delta := *p.Copies - b.TotalCopies
		if b.Copies+delta < 0 {
			return Book{}, ErrCopiesOnLoan
		}
		b.TotalCopies = *p.Copies
		b.Copies += delta
	}
	return b, nil
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperr.New(apperr.ErrValidation, "publicationDate must be YYYY-MM-DD")
	}
	return t.UTC(), nil
}
