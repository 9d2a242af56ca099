package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"libraryapi/internal/app"
	"libraryapi/internal/book"
)

var (
	genres  = []string{"Fiction", "Science Fiction", "History", "Science", "Technology", "Romance", "Mystery", "Biography", "Philosophy", "Art"}
	authors = []string{"Ursula K. Le Guin", "Frank Herbert", "Mary Beard", "Carl Sagan", "Octavia Butler", "Agatha Christie", "Walter Isaacson", "Iris Murdoch"}
	words   = []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
		"Past", "Present", "Reality", "Imagination", "Wisdom", "Life", "Death",
		"Light", "Darkness", "World", "Universe", "Time", "Space", "Mind", "Soul",
	}
)

func newBooksCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Insert randomly generated books",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			return withStore(cmd.Context(), func(store *app.Store, logger *slog.Logger) error {
				inserted, err := insertBooks(cmd.Context(), store.Books, generateBooks(rng, count), logger)
				if err != nil {
					return err
				}
				logger.Info("books seeded", "inserted", inserted, "requested", count, "driver", store.Driver)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 100, "number of books to insert")
	return cmd
}

func randomWord(rng *rand.Rand) string {
	return words[rng.Intn(len(words))]
}

// generateBooks returns n books with distinct ISBN-13 values.
func generateBooks(rng *rand.Rand, n int) []book.Book {
	seen := make(map[string]bool, n)
	books := make([]book.Book, 0, n)
	for len(books) < n {
		isbn := fmt.Sprintf("978%010d", rng.Int63n(10_000_000_000))
		if seen[isbn] {
			continue
		}
		seen[isbn] = true

		copies := 1 + rng.Intn(10)
		year := 1950 + rng.Intn(75)
		books = append(books, book.Book{
			Title:           fmt.Sprintf("The %s of %s", randomWord(rng), randomWord(rng)),
			Author:          authors[rng.Intn(len(authors))],
			ISBN:            isbn,
			PublicationDate: time.Date(year, time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC),
			Genre:           genres[rng.Intn(len(genres))],
			TotalCopies:     copies,
			Copies:          copies,
		})
	}
	return books
}

// insertBooks skips books whose ISBN is already in the store.
func insertBooks(ctx context.Context, repo book.Repository, books []book.Book, logger *slog.Logger) (int, error) {
	inserted := 0
	for i := range books {
		err := repo.Create(ctx, &books[i])
		if errors.Is(err, book.ErrDuplicateISBN) {
			logger.Debug("skipping duplicate isbn", "isbn", books[i].ISBN)
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("insert book %s: %w", books[i].ISBN, err)
		}
		inserted++
		if inserted%1000 == 0 {
			logger.Info("seeding books", "inserted", inserted, "total", len(books))
		}
	}
	return inserted, nil
}
