package memory

import (
	"context"

	"libraryapi/internal/user"
)

// Users implements user.Repository.
type Users struct {
	s *Store
}

var _ user.Repository = (*Users)(nil)

func (r *Users) Create(ctx context.Context, u *user.User) error {
	if err := r.s.lock(ctx); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	now := r.s.now()
	u.ID = newID()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.s.users[u.ID] = *u
	return nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if err := r.s.lock(ctx); err != nil {
		return user.User{}, err
	}
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *Users) GetByID(ctx context.Context, id string) (user.User, error) {
	if err := r.s.lock(ctx); err != nil {
		return user.User{}, err
	}
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}
