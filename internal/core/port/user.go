package port

import (
	"context"

	"todoweb/internal/core/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int) (domain.User, error)
	// GetByUsername matches case-insensitively.
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	// Create fails with domain.ErrUsernameTaken when the unique index rejects the row.
	Create(ctx context.Context, user domain.User) (domain.User, error)
	DeleteByID(ctx context.Context, id int) error
}
