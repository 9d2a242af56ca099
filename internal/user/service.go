package user

import (
	"context"
	"errors"
	"strings"

	"libraryapi/internal/apperr"
	"libraryapi/internal/authz"
	"libraryapi/internal/platform/crypto"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput carries the registration fields. An empty Role means Member.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	role, err := authz.ParseRole(in.Role)
	if err != nil {
		return User{}, err
	}
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return User{}, apperr.New(apperr.ErrValidation, "name, email and password are required")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}

	u := &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return *u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

// Me returns the account of the authenticated caller.
func (s *Service) Me(ctx context.Context) (User, error) {
	p, ok := authz.PrincipalFrom(ctx)
	if !ok {
		return User{}, authz.ErrUnauthorized
	}
	u, err := s.repo.GetByID(ctx, p.UserID)
	if errors.Is(err, ErrNotFound) {
		return User{}, authz.ErrUnauthorized
	}
	return u, err
}
