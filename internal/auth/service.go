package auth

import (
	"context"
	"errors"
	"time"

	"libraryapi/internal/apperr"
	"libraryapi/internal/platform/crypto"
	"libraryapi/internal/user"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

var ErrInvalidCredentials = apperr.New(apperr.ErrUnauthorized, "Invalid email or password")

// Payload is returned by a successful login.
type Payload struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

type Service struct {
	secret string
	ttl    time.Duration
	users  *user.Service
}

func NewService(secret string, ttl time.Duration, users *user.Service) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{secret: secret, ttl: ttl, users: users}
}

func (s *Service) Login(ctx context.Context, email, password string) (Payload, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Payload{}, ErrInvalidCredentials
		}
		return Payload{}, err
	}
	if !crypto.VerifyPassword(u.PasswordHash, password) {
		return Payload{}, ErrInvalidCredentials
	}

	token, err := crypto.GenerateToken(s.secret, u.ID, u.Role.String(), s.ttl)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Token: token, User: u}, nil
}
