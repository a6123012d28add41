package factory

import (
	"context"
	"time"

	fab "github.com/Goldziher/fabricator"

	"todoweb/internal/core/domain"
	"todoweb/internal/core/port"
)

func NewTodo(userID int, customData ...map[string]any) domain.Todo {
	instance := fab.New(domain.Todo{})

	return instance.Build(merge(map[string]any{
		"ID":          0,
		"Description": "buy milk",
		"Completed":   false,
		"CreatedAt":   time.Now().UTC().Truncate(time.Second),
		"UserID":      userID,
	}, customData))
}

func CreateTodo(ctx context.Context, repo port.TodoRepository, userID int, customData ...map[string]any) domain.Todo {
	todo, err := repo.Create(ctx, NewTodo(userID, customData...))

	if err != nil {
		panic(err)
	}

	return todo
}
