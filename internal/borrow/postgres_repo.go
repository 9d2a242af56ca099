package borrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"libraryapi/internal/book"
	"libraryapi/internal/platform/database"
	"libraryapi/internal/user"
)

const dialectPostgres = "postgres"

var (
	bookCols = []any{
		goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.author"), goqu.I("b.isbn"),
		goqu.I("b.publication_date"), goqu.I("b.genre"), goqu.I("b.copies_total"),
		goqu.I("b.copies_available"), goqu.I("b.created_at"), goqu.I("b.updated_at"),
	}
	userCols = []any{
		goqu.I("u.id"), goqu.I("u.name"), goqu.I("u.email"), goqu.I("u.role"),
		goqu.I("u.created_at"), goqu.I("u.updated_at"),
	}
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func bookDest(b *book.Book) []any {
	return []any{&b.ID, &b.Title, &b.Author, &b.ISBN, &b.PublicationDate, &b.Genre,
		&b.TotalCopies, &b.Copies, &b.CreatedAt, &b.UpdatedAt}
}

func userDest(u *user.User, role *string) []any {
	return []any{&u.ID, &u.Name, &u.Email, role, &u.CreatedAt, &u.UpdatedAt}
}

func recordDest(rec *Record) []any {
	return []any{&rec.ID, &rec.UserID, &rec.BookID, &rec.BorrowDate, &rec.ReturnDate, &rec.IsReturned, &rec.CreatedAt}
}

// Borrow decrements the shelf count with a conditional update, so two
// concurrent borrows of the last copy cannot both succeed.
func (r *PostgresRepo) Borrow(ctx context.Context, userID, bookID string, at time.Time) (Detail, error) {
	if !database.ValidUUID(bookID) {
		return Detail{}, book.ErrNotFound
	}
	if !database.ValidUUID(userID) {
		return Detail{}, user.ErrNotFound
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var d Detail
	err := pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		var role string
		err := tx.QueryRow(timeoutCtx,
			`SELECT id, name, email, role, created_at, updated_at FROM users WHERE id = $1`, userID).
			Scan(userDest(&d.User, &role)...)
		if errors.Is(err, pgx.ErrNoRows) {
			return user.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load borrower: %w", err)
		}
		d.User.Role = user.ParseStoredRole(role)

		const takeCopy = `
		UPDATE books
		SET copies_available = copies_available - 1, updated_at = now()
		WHERE id = $1 AND copies_available > 0
		RETURNING id, title, author, isbn, publication_date, genre, copies_total, copies_available, created_at, updated_at
		`
		err = tx.QueryRow(timeoutCtx, takeCopy, bookID).Scan(bookDest(&d.Book)...)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(timeoutCtx, `SELECT EXISTS(SELECT 1 FROM books WHERE id = $1)`, bookID).Scan(&exists); err != nil {
				return fmt.Errorf("check book: %w", err)
			}
			if !exists {
				return book.ErrNotFound
			}
			return ErrUnavailable
		}
		if err != nil {
			return fmt.Errorf("take copy: %w", err)
		}

		const insert = `
		INSERT INTO borrows (id, user_id, book_id, borrow_date, is_returned)
		VALUES (gen_random_uuid(), $1, $2, $3, false)
		RETURNING id, user_id, book_id, borrow_date, return_date, is_returned, created_at
		`
		if err := tx.QueryRow(timeoutCtx, insert, userID, bookID, at).Scan(recordDest(&d.Record)...); err != nil {
			return fmt.Errorf("insert borrow: %w", err)
		}
		return nil
	})
	if err != nil {
		return Detail{}, err
	}
	return d, nil
}

func (r *PostgresRepo) Return(ctx context.Context, userID, borrowID string, at time.Time) (Record, error) {
	if !database.ValidUUID(borrowID) {
		return Record{}, ErrNotFound
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rec Record
	err := pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		const lock = `
		SELECT id, user_id, book_id, borrow_date, return_date, is_returned, created_at
		FROM borrows WHERE id = $1 FOR UPDATE
		`
		err := tx.QueryRow(timeoutCtx, lock, borrowID).Scan(recordDest(&rec)...)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock borrow: %w", err)
		}
		if rec.UserID != userID {
			return ErrNotOwner
		}
		if rec.IsReturned {
			return ErrAlreadyReturned
		}

		tag, err := tx.Exec(timeoutCtx,
			`UPDATE borrows SET is_returned = true, return_date = $2 WHERE id = $1 AND is_returned = false`,
			borrowID, at)
		if err != nil {
			return fmt.Errorf("close borrow: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return ErrAlreadyReturned
		}

		tag, err = tx.Exec(timeoutCtx,
			`UPDATE books SET copies_available = copies_available + 1, updated_at = now()
			 WHERE id = $1 AND copies_available < copies_total`,
			rec.BookID)
		if err != nil {
			return fmt.Errorf("restore copy: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("restore copy of book %s: shelf count already at total", rec.BookID)
		}

		rec.IsReturned = true
		rec.ReturnDate = &at
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (r *PostgresRepo) buildHistoryQuery(userID string) (string, []any, error) {
	cols := append([]any{
		goqu.I("br.id"), goqu.I("br.user_id"), goqu.I("br.book_id"), goqu.I("br.borrow_date"),
		goqu.I("br.return_date"), goqu.I("br.is_returned"), goqu.I("br.created_at"),
	}, bookCols...)
	cols = append(cols, userCols...)

	query, args, err := goqu.Dialect(dialectPostgres).
		From(goqu.T("borrows").As("br")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("br.book_id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("br.user_id")))).
		Select(cols...).
		Where(goqu.I("br.user_id").Eq(userID)).
		Order(goqu.I("br.borrow_date").Asc(), goqu.I("br.id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build history query: %w", err)
	}
	return query, args, nil
}

func (r *PostgresRepo) History(ctx context.Context, userID string) ([]Detail, error) {
	if !database.ValidUUID(userID) {
		return []Detail{}, nil
	}
	query, args, err := r.buildHistoryQuery(userID)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	history := []Detail{}
	for rows.Next() {
		var d Detail
		var role string
		dest := append(recordDest(&d.Record), bookDest(&d.Book)...)
		dest = append(dest, userDest(&d.User, &role)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		d.User.Role = user.ParseStoredRole(role)
		history = append(history, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return history, nil
}

func (r *PostgresRepo) buildMostBorrowedQuery(limit int) (string, []any, error) {
	cols := append(append([]any{}, bookCols...), goqu.COUNT(goqu.Star()).As("borrow_count"))
	query, args, err := goqu.Dialect(dialectPostgres).
		From(goqu.T("borrows").As("br")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("br.book_id")))).
		Select(cols...).
		GroupBy(goqu.I("b.id")).
		Order(goqu.I("borrow_count").Desc(), goqu.I("b.id").Asc()).
		Limit(uint(limit)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build most borrowed query: %w", err)
	}
	return query, args, nil
}

func (r *PostgresRepo) MostBorrowed(ctx context.Context, limit int) ([]BookCount, error) {
	query, args, err := r.buildMostBorrowedQuery(limit)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query most borrowed: %w", err)
	}
	defer rows.Close()

	result := []BookCount{}
	for rows.Next() {
		var row BookCount
		if err := rows.Scan(append(bookDest(&row.Book), &row.Count)...); err != nil {
			return nil, fmt.Errorf("scan most borrowed: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query most borrowed: %w", err)
	}
	return result, nil
}

func (r *PostgresRepo) buildActiveMembersQuery(limit int) (string, []any, error) {
	cols := append(append([]any{}, userCols...), goqu.COUNT(goqu.Star()).As("return_count"))
	query, args, err := goqu.Dialect(dialectPostgres).
		From(goqu.T("borrows").As("br")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("br.user_id")))).
		Select(cols...).
		Where(goqu.I("br.is_returned").IsTrue()).
		GroupBy(goqu.I("u.id")).
		Order(goqu.I("return_count").Desc(), goqu.I("u.id").Asc()).
		Limit(uint(limit)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build active members query: %w", err)
	}
	return query, args, nil
}

func (r *PostgresRepo) ActiveMembers(ctx context.Context, limit int) ([]MemberCount, error) {
	query, args, err := r.buildActiveMembersQuery(limit)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query active members: %w", err)
	}
	defer rows.Close()

	result := []MemberCount{}
	for rows.Next() {
		var row MemberCount
		var role string
		if err := rows.Scan(append(userDest(&row.User, &role), &row.Count)...); err != nil {
			return nil, fmt.Errorf("scan active members: %w", err)
		}
		row.User.Role = user.ParseStoredRole(role)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query active members: %w", err)
	}
	return result, nil
}

func (r *PostgresRepo) Availability(ctx context.Context) (Availability, error) {
	query, _, err := goqu.Dialect(dialectPostgres).
		From("books").
		Select(
			goqu.COALESCE(goqu.SUM("copies_total"), 0),
			goqu.COALESCE(goqu.SUM("copies_available"), 0),
		).
		ToSQL()
	if err != nil {
		return Availability{}, fmt.Errorf("build availability query: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var total, available int64
	if err := r.db.QueryRow(timeoutCtx, query).Scan(&total, &available); err != nil {
		return Availability{}, fmt.Errorf("query availability: %w", err)
	}
	return NewAvailability(int(total), int(available)), nil
}
