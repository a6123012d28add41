package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"todoweb/internal/adapter/database/sqlite"
	"todoweb/internal/core/domain"
	"todoweb/internal/core/port"
	tel "todoweb/internal/core/telemetry"
)

const usersTable = `"user"`

var userColumns = []string{"id", "username", "password_hash", "created_at"}

type UserRepository struct {
	db        *sqlite.DB
	telemetry port.Telemetry
}

func NewUserRepository(db *sqlite.DB, telemetry port.Telemetry) port.UserRepository {
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

	return user, sqlite.Translate(err)
}

func (ur *UserRepository) track(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := ur.telemetry.StartRepositorySpan(ctx, operation, "user", nil)

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

	return scanUser(ur.db.QueryRowContext(ctx, query, args...))
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

	return scanUser(ur.db.QueryRowContext(ctx, query, args...))
}

func (ur *UserRepository) Create(ctx context.Context, user domain.User) (saved domain.User, err error) {
	ctx, done := ur.track(ctx, "create")
	defer func() { done(err) }()

	tx, err := ur.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, sqlite.Translate(err)
	}
	defer tx.Rollback()

	stmt, args, err := ur.db.QueryBuilder.Insert(usersTable).
		Columns("username", "password_hash", "created_at").
		Values(user.Username, user.PasswordHash, user.CreatedAt.UTC()).
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	result, err := tx.ExecContext(ctx, stmt, args...)

	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return domain.User{}, domain.ErrUsernameTaken
		}

		return domain.User{}, sqlite.Translate(err)
	}

	id, err := result.LastInsertId()

	if err != nil {
		return domain.User{}, sqlite.Translate(err)
	}

	saved, err = ur.getByIDTx(ctx, tx, int(id))

	if err != nil {
		return domain.User{}, err
	}

	return saved, sqlite.Translate(tx.Commit())
}

func (ur *UserRepository) getByIDTx(ctx context.Context, tx *sql.Tx, id int) (domain.User, error) {
	query, args, err := ur.db.QueryBuilder.Select(userColumns...).
		From(usersTable).
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	return scanUser(tx.QueryRowContext(ctx, query, args...))
}

// DeleteByID removes the user; owned todos go with it through the
// ON DELETE CASCADE foreign key.
func (ur *UserRepository) DeleteByID(ctx context.Context, id int) (err error) {
	ctx, done := ur.track(ctx, "delete")
	defer func() { done(err) }()

	tx, err := ur.db.BeginTx(ctx, nil)
	if err != nil {
		return sqlite.Translate(err)
	}
	defer tx.Rollback()

	stmt, args, err := ur.db.QueryBuilder.Delete(usersTable).
		Where(sq.Eq{"id": id}).
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
