package service

import (
	"context"
	"time"

	"todoweb/internal/core/domain"
	"todoweb/internal/core/port"
	"todoweb/internal/core/security"
)

type TodoService struct {
	todos     port.TodoRepository
	policy    port.OwnershipPolicy
	audit     port.AuditLogger
	telemetry port.Telemetry
	now       Clock
}

func NewTodoService(todos port.TodoRepository, policy port.OwnershipPolicy, audit port.AuditLogger, probe port.Telemetry) *TodoService {
	return &TodoService{
		todos:     todos,
		policy:    policy,
		audit:     audit,
		telemetry: probeOrNoop(probe),
		now:       time.Now,
	}
}

func (ts *TodoService) WithClock(clock Clock) *TodoService {
	ts.now = clock
	return ts
}

func (ts *TodoService) ListOwn(ctx context.Context, user domain.User) (todos []domain.Todo, err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "list", user.ID)
	defer func() { done(err) }()

	return ts.todos.ListByUser(ctx, user.ID)
}

// Add rejects descriptions that are blank or too long after trimming, then
// stores the sanitized plain text.
func (ts *TodoService) Add(ctx context.Context, user domain.User, rawDescription string) (todo domain.Todo, err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "add", user.ID)
	defer func() { done(err) }()

	description, err := domain.ValidateDescription(rawDescription)

	if err != nil {
		return domain.Todo{}, err
	}

	todo, err = domain.NewTodo(security.SanitizeText(description, domain.DescriptionMaxLength), user.ID, ts.now())

	if err != nil {
		return domain.Todo{}, err
	}

	return ts.todos.Create(ctx, todo)
}

func (ts *TodoService) Toggle(ctx context.Context, user domain.User, todoID int) (todo domain.Todo, err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "toggle", user.ID)
	defer func() { done(err) }()

	todo, err = ts.owned(ctx, user, todoID, "toggle")

	if err != nil {
		return domain.Todo{}, err
	}

	todo.Toggle()

	return ts.todos.SetCompleted(ctx, todo.ID, user.ID, todo.Completed)
}

func (ts *TodoService) Delete(ctx context.Context, user domain.User, todoID int) (err error) {
	ctx, done := observe(ctx, ts.telemetry, "todo", "delete", user.ID)
	defer func() { done(err) }()

	if _, err = ts.owned(ctx, user, todoID, "delete"); err != nil {
		return err
	}

	return ts.todos.DeleteByID(ctx, todoID, user.ID)
}

func (ts *TodoService) owned(ctx context.Context, user domain.User, todoID int, action string) (domain.Todo, error) {
	todo, err := ts.todos.GetByID(ctx, todoID)

	if err != nil {
		return domain.Todo{}, err
	}

	if !ts.policy.RequireOwnership(user, todo.UserID) {
		ts.audit.LogSecurityEvent(ctx, port.EventUnauthorizedAccess, map[string]any{
			"action":  action,
			"todo_id": todoID,
		}, &user.ID)

		return domain.Todo{}, domain.ErrUnauthorized
	}

	return todo, nil
}
