package borrow

import (
	"context"
	"strings"
	"time"

	"libraryapi/internal/apperr"
	"libraryapi/internal/authz"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Borrow lends one copy of bookID to the calling member.
func (s *Service) Borrow(ctx context.Context, bookID string) (Detail, error) {
	p, err := authz.Require(ctx, authz.RoleMember)
	if err != nil {
		return Detail{}, err
	}
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return Detail{}, apperr.New(apperr.ErrValidation, "bookId is required")
	}
	return s.repo.Borrow(ctx, p.UserID, bookID, s.now())
}

// Return closes one of the calling member's own loans.
func (s *Service) Return(ctx context.Context, borrowID string) (Record, error) {
	p, err := authz.Require(ctx, authz.RoleMember)
	if err != nil {
		return Record{}, err
	}
	return s.repo.Return(ctx, p.UserID, strings.TrimSpace(borrowID), s.now())
}

func (s *Service) History(ctx context.Context) ([]Detail, error) {
	p, err := authz.Require(ctx, authz.RoleMember)
	if err != nil {
		return nil, err
	}
	return s.repo.History(ctx, p.UserID)
}

func (s *Service) MostBorrowed(ctx context.Context) ([]BookCount, error) {
	if _, err := authz.Require(ctx, authz.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.MostBorrowed(ctx, ReportLimit)
}

func (s *Service) ActiveMembers(ctx context.Context) ([]MemberCount, error) {
	if _, err := authz.Require(ctx, authz.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.ActiveMembers(ctx, ReportLimit)
}

func (s *Service) Availability(ctx context.Context) (Availability, error) {
	if _, err := authz.Require(ctx, authz.RoleAdmin); err != nil {
		return Availability{}, err
	}
	return s.repo.Availability(ctx)
}
