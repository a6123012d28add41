package port

import (
	"context"

	"todoweb/internal/core/domain"
)

type TodoRepository interface {
	ListByUser(ctx context.Context, userID int) ([]domain.Todo, error)
	GetByID(ctx context.Context, id int) (domain.Todo, error)
	Create(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	// SetCompleted and DeleteByID are scoped to the owner; a row owned by
	// someone else is reported as domain.ErrNotFound and left untouched.
	SetCompleted(ctx context.Context, id int, userID int, completed bool) (domain.Todo, error)
	DeleteByID(ctx context.Context, id int, userID int) error
}

type TodoService interface {
	ListOwn(ctx context.Context, user domain.User) ([]domain.Todo, error)
	Add(ctx context.Context, user domain.User, rawDescription string) (domain.Todo, error)
	Toggle(ctx context.Context, user domain.User, todoID int) (domain.Todo, error)
	Delete(ctx context.Context, user domain.User, todoID int) error
}
