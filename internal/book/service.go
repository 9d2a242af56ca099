package book

import (
	"context"
	"strings"

	"libraryapi/internal/apperr"
	"libraryapi/internal/authz"
)

// Service provides catalog management. Mutations require the Admin role.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a page of books matching the query and the total match count.
func (s *Service) List(ctx context.Context, q Query) ([]Book, int, error) {
	return s.repo.List(ctx, q.Normalize())
}

func (s *Service) Get(ctx context.Context, id string) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Add(ctx context.Context, in Input) (Book, error) {
	if _, err := authz.Require(ctx, authz.RoleAdmin); err != nil {
		return Book{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.ISBN = NormalizeISBN(in.ISBN)
	in.Genre = strings.TrimSpace(in.Genre)
	if in.Title == "" || in.Author == "" || in.ISBN == "" {
		return Book{}, apperr.New(apperr.ErrValidation, "title, author and isbn are required")
	}
	if in.PublicationDate.IsZero() {
		return Book{}, apperr.New(apperr.ErrValidation, "publicationDate is required")
	}
	if in.Copies < 0 {
		return Book{}, apperr.New(apperr.ErrValidation, "copies must not be negative")
	}

	b := &Book{
		Title:           in.Title,
		Author:          in.Author,
		ISBN:            in.ISBN,
		PublicationDate: in.PublicationDate,
		Genre:           in.Genre,
		TotalCopies:     in.Copies,
		Copies:          in.Copies,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return Book{}, err
	}
	return *b, nil
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (Book, error) {
	if _, err := authz.Require(ctx, authz.RoleAdmin); err != nil {
		return Book{}, err
	}
	if p.Copies != nil && *p.Copies < 0 {
		return Book{}, apperr.New(apperr.ErrValidation, "copies must not be negative")
	}
	for _, f := range []*string{p.Title, p.Author, p.ISBN} {
		if f != nil && strings.TrimSpace(*f) == "" {
			return Book{}, apperr.New(apperr.ErrValidation, "title, author and isbn must not be empty")
		}
	}
	if p.ISBN != nil {
		isbn := NormalizeISBN(*p.ISBN)
		p.ISBN = &isbn
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := authz.Require(ctx, authz.RoleAdmin); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
