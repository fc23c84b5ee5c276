package repository

import (
	"context"
	"errors"

	"contenthub/backend/internal/user/domain"
)

// ErrDuplicate is returned by Create when the username or email is taken.
var ErrDuplicate = errors.New("username or email already exists")

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}
