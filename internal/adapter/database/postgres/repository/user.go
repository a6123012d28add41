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

const usersTable = `"user"`

var userColumns = []string{"id", "username", "password_hash", "created_at"}

type UserRepository struct {
	db        *database.DB
	telemetry port.Telemetry
}

func NewUserRepository(db *database.DB, telemetry port.Telemetry) port.UserRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &UserRepository{
		db:        db,
		telemetry: telemetry,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var user domain.User

	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	user.CreatedAt = user.CreatedAt.UTC()

	return user, database.Translate(err)
}

func (ur *UserRepository) track(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := ur.telemetry.StartRepositorySpan(ctx, operation, "user", map[string]any{"db.system": "postgresql"})

	return ctx, func(err error) {
		ur.telemetry.RecordRepositoryOperation(ctx, operation, "user", time.Since(start), err)
		span.End()
	}
}

func (ur *UserRepository) GetByID(ctx context.Context, id int) (user domain.User, err error) {
	ctx, done := ur.track(ctx, "get_by_id")
	defer func() { done(err) }()

	query, args, err := ur.db.QueryBuilder.Select(userColumns...).
		From(usersTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	return scanUser(ur.db.QueryRow(ctx, query, args...))
}

func (ur *UserRepository) GetByUsername(ctx context.Context, username string) (user domain.User, err error) {
	ctx, done := ur.track(ctx, "get_by_username")
	defer func() { done(err) }()

	query, args, err := ur.db.QueryBuilder.Select(userColumns...).
		From(usersTable).
		Where(sq.Expr("lower(username) = lower(?)", username)).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	return scanUser(ur.db.QueryRow(ctx, query, args...))
}

func (ur *UserRepository) Create(ctx context.Context, user domain.User) (saved domain.User, err error) {
	ctx, done := ur.track(ctx, "create")
	defer func() { done(err) }()

	stmt, args, err := ur.db.QueryBuilder.Insert(usersTable).
		Columns("username", "password_hash", "created_at").
		Values(user.Username, user.PasswordHash, user.CreatedAt.UTC()).
		Suffix("RETURNING id, username, password_hash, created_at").
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	saved, err = scanUser(ur.db.QueryRow(ctx, stmt, args...))

	if database.IsUniqueViolation(err) {
		return domain.User{}, domain.ErrUsernameTaken
	}

	return saved, err
}

func (ur *UserRepository) DeleteByID(ctx context.Context, id int) (err error) {
	ctx, done := ur.track(ctx, "delete")
	defer func() { done(err) }()

	stmt, args, err := ur.db.QueryBuilder.Delete(usersTable).
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return err
	}

	tag, err := ur.db.Exec(ctx, stmt, args...)

	if err != nil {
		return database.Translate(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}
