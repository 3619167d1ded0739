package services

import (
	"context"

	"github.com/google/uuid"

	"goalmateAPI/internal/apperror"
	"goalmateAPI/internal/store"
	"goalmateAPI/internal/types/user"
)

type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

// Retrieve returns the public projection of a user.
func (s *UserService) Retrieve(ctx context.Context, id uuid.UUID) (*user.Public, error) {
	u, err := s.store.RetrieveUser(ctx, id)
	if err == store.ErrNotFound {
		return nil, apperror.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}
