package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	database "todoweb/internal/adapter/database/postgres"
	domain "todoweb/internal/core/domain"
	port "todoweb/internal/core/port"
	tel "todoweb/internal/core/telemetry"
)

const (
	todosTable = "todo"
	returning  = "RETURNING id, description, completed, created_at, user_id"
)

var todoColumns = []string{"id", "description", "completed", "created_at", "user_id"}

type TodoRepository struct {
	db        *database.DB
	telemetry port.Telemetry
}

func NewTodoRepository(db *database.DB, telemetry port.Telemetry) port.TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{
		db:        db,
		telemetry: telemetry,
	}
}

func scanTodo(row rowScanner) (domain.Todo, error) {
	var todo domain.Todo

	err := row.Scan(&todo.ID, &todo.Description, &todo.Completed, &todo.CreatedAt, &todo.UserID)
	todo.CreatedAt = todo.CreatedAt.UTC()

	return todo, database.Translate(err)
}

func (tr *TodoRepository) track(ctx context.Context, operation string, userID int) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, operation, "todo", map[string]any{
		"db.system": "postgresql",
		"user_id":   userID,
	})

	return ctx, func(err error) {
		tr.telemetry.RecordRepositoryOperation(ctx, operation, "todo", time.Since(start), err)
		span.End()
	}
}

func (tr *TodoRepository) ListByUser(ctx context.Context, userID int) (todos []domain.Todo, err error) {
	ctx, done := tr.track(ctx, "list_by_user", userID)
	defer func() { done(err) }()

	query, args, err := tr.db.QueryBuilder.Select(todoColumns...).
		From(todosTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()

	if err != nil {
		return nil, err
	}

	rows, err := tr.db.Query(ctx, query, args...)

	if err != nil {
		return nil, database.Translate(err)
	}

	defer rows.Close()

	todos = []domain.Todo{}

	for rows.Next() {
		todo, err := scanTodo(rows)

		if err != nil {
			return nil, err
		}

		todos = append(todos, todo)
	}

	return todos, database.Translate(rows.Err())
}

func (tr *TodoRepository) GetByID(ctx context.Context, id int) (todo domain.Todo, err error) {
	ctx, done := tr.track(ctx, "get_by_id", 0)
	defer func() { done(err) }()

	query, args, err := tr.db.QueryBuilder.Select(todoColumns...).
		From(todosTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	return scanTodo(tr.db.QueryRow(ctx, query, args...))
}

func (tr *TodoRepository) Create(ctx context.Context, todo domain.Todo) (saved domain.Todo, err error) {
	ctx, done := tr.track(ctx, "create", todo.UserID)
	defer func() { done(err) }()

	stmt, args, err := tr.db.QueryBuilder.Insert(todosTable).
		Columns("description", "completed", "created_at", "user_id").
		Values(todo.Description, todo.Completed, todo.CreatedAt.UTC(), todo.UserID).
		Suffix(returning).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	return scanTodo(tr.db.QueryRow(ctx, stmt, args...))
}

func (tr *TodoRepository) SetCompleted(ctx context.Context, id int, userID int, completed bool) (updated domain.Todo, err error) {
	ctx, done := tr.track(ctx, "set_completed", userID)
	defer func() { done(err) }()

	tx, err := tr.db.Begin(ctx)

	if err != nil {
		return domain.Todo{}, database.Translate(err)
	}

	defer tx.Rollback(ctx)

	stmt, args, err := tr.db.QueryBuilder.Update(todosTable).
		Set("completed", completed).
		Where(sq.Eq{"id": id, "user_id": userID}).
		Suffix(returning).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	updated, err = scanTodo(tx.QueryRow(ctx, stmt, args...))

	if err != nil {
		return domain.Todo{}, err
	}

	return updated, database.Translate(tx.Commit(ctx))
}

func (tr *TodoRepository) DeleteByID(ctx context.Context, id int, userID int) (err error) {
	ctx, done := tr.track(ctx, "delete", userID)
	defer func() { done(err) }()

	stmt, args, err := tr.db.QueryBuilder.Delete(todosTable).
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()

	if err != nil {
		return err
	}

	tag, err := tr.db.Exec(ctx, stmt, args...)

	if err != nil {
		return database.Translate(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}
