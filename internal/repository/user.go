package repository

import (
	"context"

	"delivery/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByIdentityID(ctx context.Context, identityID string) (*domain.User, error)
	GetAll(ctx context.Context) ([]*domain.User, error)
}
