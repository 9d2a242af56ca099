package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"libraryapi/internal/platform/database"
)

const (
	dialectPostgres = "postgres"
	tableBooks      = "books"
)

var bookColumns = []any{
	"id", "title", "author", "isbn", "publication_date", "genre",
	"copies_total", "copies_available", "created_at", "updated_at",
}

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

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.PublicationDate, &b.Genre,
		&b.TotalCopies, &b.Copies, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("scan book: %w", err)
	}
	return b, nil
}

func (r *PostgresRepo) buildListQueries(q Query) (listSQL string, listArgs []any, countSQL string, countArgs []any, err error) {
	q = q.Normalize()
	ds := goqu.Dialect(dialectPostgres).From(tableBooks).Prepared(true)
	if q.Genre != "" {
		ds = ds.Where(goqu.C("genre").Eq(q.Genre))
	}
	if q.Author != "" {
		ds = ds.Where(goqu.C("author").Eq(q.Author))
	}

	countSQL, countArgs, err = ds.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return "", nil, "", nil, fmt.Errorf("build count query: %w", err)
	}

	listSQL, listArgs, err = ds.Select(bookColumns...).
		Order(goqu.C("created_at").Asc(), goqu.C("id").Asc()).
		Limit(uint(q.Limit)).
		Offset(uint(q.Offset())).
		ToSQL()
	if err != nil {
		return "", nil, "", nil, fmt.Errorf("build list query: %w", err)
	}
	return listSQL, listArgs, countSQL, countArgs, nil
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	listSQL, listArgs, countSQL, countArgs, err := r.buildListQueries(q)
	if err != nil {
		return nil, 0, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRow(timeoutCtx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	rows, err := r.db.Query(timeoutCtx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := make([]Book, 0, q.Normalize().Limit)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	return books, total, nil
}

const selectBook = `
	SELECT id, title, author, isbn, publication_date, genre, copies_total, copies_available, created_at, updated_at
	FROM books`

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Book, error) {
	if !database.ValidUUID(id) {
		return Book{}, ErrNotFound
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(timeoutCtx, selectBook+` WHERE id = $1`, id))
}

func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	const query = `
	INSERT INTO books (id, title, author, isbn, publication_date, genre, copies_total, copies_available)
	VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $6)
	RETURNING id, copies_available, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, b.Title, b.Author, b.ISBN, b.PublicationDate, b.Genre, b.TotalCopies).
		Scan(&b.ID, &b.Copies, &b.CreatedAt, &b.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return ErrDuplicateISBN
	}
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Update(ctx context.Context, id string, p Patch) (Book, error) {
	if !database.ValidUUID(id) {
		return Book{}, ErrNotFound
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var updated Book
	err := pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		current, err := scanBook(tx.QueryRow(timeoutCtx, selectBook+` WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		next, err := p.Apply(current)
		if err != nil {
			return err
		}

		const query = `
		UPDATE books
		SET title = $2, author = $3, isbn = $4, publication_date = $5, genre = $6,
		    copies_total = $7, copies_available = $8, updated_at = now()
		WHERE id = $1
		RETURNING id, title, author, isbn, publication_date, genre, copies_total, copies_available, created_at, updated_at
		`
		updated, err = scanBook(tx.QueryRow(timeoutCtx, query, id, next.Title, next.Author, next.ISBN,
			next.PublicationDate, next.Genre, next.TotalCopies, next.Copies))
		return err
	})
	if database.IsUniqueViolation(err) {
		return Book{}, ErrDuplicateISBN
	}
	if err != nil {
		return Book{}, err
	}
	return updated, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	if !database.ValidUUID(id) {
		return ErrNotFound
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	return pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		var total, available int
		err := tx.QueryRow(timeoutCtx,
			`SELECT copies_total, copies_available FROM books WHERE id = $1 FOR UPDATE`, id).
			Scan(&total, &available)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock book: %w", err)
		}
		if total != available {
			return ErrOnLoan
		}

		if _, err := tx.Exec(timeoutCtx, `DELETE FROM borrows WHERE book_id = $1`, id); err != nil {
			return fmt.Errorf("delete borrow history: %w", err)
		}
		if _, err := tx.Exec(timeoutCtx, `DELETE FROM books WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete book: %w", err)
		}
		return nil
	})
}
