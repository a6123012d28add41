package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"todoweb/internal/adapter/database/sqlite"
	"todoweb/internal/core/domain"
	"todoweb/internal/core/port"
	tel "todoweb/internal/core/telemetry"
)

const todosTable = "todo"

var todoColumns = []string{"id", "description", "completed", "created_at", "user_id"}

type TodoRepository struct {
	db        *sqlite.DB
	telemetry port.Telemetry
}

func NewTodoRepository(db *sqlite.DB, telemetry port.Telemetry) port.TodoRepository {
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

	return todo, sqlite.Translate(err)
}

func (tr *TodoRepository) track(ctx context.Context, operation string, userID int) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, operation, "todo", map[string]any{"user_id": userID})

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

	rows, err := tr.db.QueryContext(ctx, query, args...)

	if err != nil {
		return nil, sqlite.Translate(err)
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

	return todos, sqlite.Translate(rows.Err())
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

	return scanTodo(tr.db.QueryRowContext(ctx, query, args...))
}

func (tr *TodoRepository) Create(ctx context.Context, todo domain.Todo) (saved domain.Todo, err error) {
	ctx, done := tr.track(ctx, "create", todo.UserID)
	defer func() { done(err) }()

	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Todo{}, sqlite.Translate(err)
	}
	defer tx.Rollback()

	stmt, args, err := tr.db.QueryBuilder.Insert(todosTable).
		Columns("description", "completed", "created_at", "user_id").
		Values(todo.Description, todo.Completed, todo.CreatedAt.UTC(), todo.UserID).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	result, err := tx.ExecContext(ctx, stmt, args...)

	if err != nil {
		return domain.Todo{}, sqlite.Translate(err)
	}

	id, err := result.LastInsertId()

	if err != nil {
		return domain.Todo{}, sqlite.Translate(err)
	}

	query, args, err := tr.db.QueryBuilder.Select(todoColumns...).
		From(todosTable).
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	saved, err = scanTodo(tx.QueryRowContext(ctx, query, args...))

	if err != nil {
		return domain.Todo{}, err
	}

	return saved, sqlite.Translate(tx.Commit())
}

func (tr *TodoRepository) SetCompleted(ctx context.Context, id int, userID int, completed bool) (updated domain.Todo, err error) {
	ctx, done := tr.track(ctx, "set_completed", userID)
	defer func() { done(err) }()

	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Todo{}, sqlite.Translate(err)
	}
	defer tx.Rollback()

	owned := sq.Eq{"id": id, "user_id": userID}

	stmt, args, err := tr.db.QueryBuilder.Update(todosTable).
		Set("completed", completed).
		Where(owned).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	result, err := tx.ExecContext(ctx, stmt, args...)

	if err != nil {
		return domain.Todo{}, sqlite.Translate(err)
	}

	if n, err := result.RowsAffected(); err != nil {
		return domain.Todo{}, sqlite.Translate(err)
	} else if n == 0 {
		return domain.Todo{}, domain.ErrNotFound
	}

	query, args, err := tr.db.QueryBuilder.Select(todoColumns...).
		From(todosTable).
		Where(owned).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	updated, err = scanTodo(tx.QueryRowContext(ctx, query, args...))

	if err != nil {
		return domain.Todo{}, err
	}

	return updated, sqlite.Translate(tx.Commit())
}

func (tr *TodoRepository) DeleteByID(ctx context.Context, id int, userID int) (err error) {
	ctx, done := tr.track(ctx, "delete", userID)
	defer func() { done(err) }()

	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return sqlite.Translate(err)
	}
	defer tx.Rollback()

	stmt, args, err := tr.db.QueryBuilder.Delete(todosTable).
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()

	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, stmt, args...)

	if err != nil {
		return sqlite.Translate(err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return sqlite.Translate(err)
	}

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return sqlite.Translate(tx.Commit())
}
