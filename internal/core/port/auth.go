package port

import (
	"context"

	"todoweb/internal/core/domain"
)

type OwnershipPolicy interface {
	RequireOwnership(user domain.User, resourceOwnerID int) bool
}

type AuthService interface {
	OwnershipPolicy

	CreateUser(ctx context.Context, username, password, passwordConfirm string) (domain.User, error)
	Authenticate(ctx context.Context, username, password string) (domain.User, error)
	ResolveSessionUser(ctx context.Context, sessionID string) (*domain.User, error)

	// Login authenticates and replaces sessionID with a fresh authenticated session.
	Login(ctx context.Context, sessionID, username, password string) (Session, domain.User, error)
	Logout(ctx context.Context, sessionID string) error
	DeleteAccount(ctx context.Context, userID int) error
}
