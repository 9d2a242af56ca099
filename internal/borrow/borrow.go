// Package borrow keeps each book's shelf count consistent with its
// outstanding borrow records. Borrowing and returning change the book and the
// record together or not at all.
package borrow

import (
	"time"

	"libraryapi/internal/apperr"
	"libraryapi/internal/book"
	"libraryapi/internal/user"
)

var (
	ErrNotFound        = apperr.New(apperr.ErrNotFound, "Borrow record not found")
	ErrUnavailable     = apperr.New(apperr.ErrUnavailable, "Book unavailable")
	ErrAlreadyReturned = apperr.New(apperr.ErrInvalidState, "Book already returned")
	ErrNotOwner        = apperr.New(apperr.ErrForbidden, "Borrow record belongs to another member")
)

// ReportLimit is the number of rows returned by the ranking reports.
const ReportLimit = 5

// Record links a member to a borrowed book.
type Record struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	BookID     string     `json:"bookId"`
	BorrowDate time.Time  `json:"borrowDate"`
	ReturnDate *time.Time `json:"returnDate"`
	IsReturned bool       `json:"isReturned"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Detail is a Record with its book and member resolved.
type Detail struct {
	Record
	Book book.Book `json:"book"`
	User user.User `json:"user"`
}

// BookCount is a row of the most borrowed books report.
type BookCount struct {
	Book  book.Book `json:"bookDetails"`
	Count int       `json:"count"`
}

// MemberCount is a row of the active members report.
type MemberCount struct {
	User  user.User `json:"userDetails"`
	Count int       `json:"count"`
}

// Availability summarizes copies across the whole catalog.
type Availability struct {
	TotalBooks     int `json:"totalBooks"`
	AvailableBooks int `json:"availableBooks"`
	BorrowedBooks  int `json:"borrowedBooks"`
}

// NewAvailability derives the borrowed count from the two sums.
func NewAvailability(total, available int) Availability {
	return Availability{
		TotalBooks:     total,
		AvailableBooks: available,
		BorrowedBooks:  total - available,
	}
}
