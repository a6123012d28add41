package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"todoweb/db/migrations"
	"todoweb/internal/core/port"
)

// Migrator applies the embedded migrations and keeps migration_version in
// step with golang-migrate's own bookkeeping.
type Migrator struct {
	db      *sql.DB
	files   fs.FS
	migrate *migrate.Migrate
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

var _ port.Migrator = (*Migrator)(nil)

// NewSQLite never closes db; the sqlite3 driver would close the shared
// handle together with the migrator.
func NewSQLite(db *sql.DB) (*Migrator, error) {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})

	if err != nil {
		return nil, fmt.Errorf("sqlite migration driver: %w", err)
	}

	return newMigrator(db, migrations.SQLite, "sqlite3", driver)
}

// NewPostgres expects a database/sql handle opened with the pgx stdlib driver.
func NewPostgres(db *sql.DB) (*Migrator, error) {
	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})

	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}

	return newMigrator(db, migrations.Postgres, "pgx5", driver)
}

func newMigrator(db *sql.DB, dialect, driverName string, driver database.Driver) (*Migrator, error) {
	files, err := migrations.For(dialect)

	if err != nil {
		return nil, err
	}

	src, err := iofs.New(files, ".")

	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driverName, driver)

	if err != nil {
		return nil, fmt.Errorf("migration instance: %w", err)
	}

	return &Migrator{
		db:      db,
		files:   files,
		migrate: m,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:     time.Now,
	}, nil
}

func (mg *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	version, dirty, err := mg.migrate.Version()

	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}

	if err != nil {
		return 0, err
	}

	if dirty {
		return int(version), fmt.Errorf("schema version %d is dirty", version)
	}

	return int(version), nil
}

func (mg *Migrator) ApplyPending(ctx context.Context) error {
	before, err := mg.CurrentVersion(ctx)

	if err != nil {
		return err
	}

	if err := mg.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	after, err := mg.CurrentVersion(ctx)

	if err != nil {
		return err
	}

	return mg.record(ctx, before, after)
}

// record writes a migration_version row for every version in (from, to].
func (mg *Migrator) record(ctx context.Context, from, to int) error {
	if to <= from {
		return nil
	}

	descriptions, err := mg.descriptions()

	if err != nil {
		return err
	}

	for version := from + 1; version <= to; version++ {
		description, ok := descriptions[version]

		if !ok {
			continue
		}

		stmt, args, err := mg.builder.Insert("migration_version").
			Columns("version", "applied_at", "description").
			Values(version, mg.now().UTC(), description).
			Suffix("ON CONFLICT (version) DO NOTHING").
			ToSql()

		if err != nil {
			return err
		}

		if _, err := mg.db.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("record migration %d: %w", version, err)
		}
	}

	return nil
}

func (mg *Migrator) descriptions() (map[int]string, error) {
	entries, err := fs.ReadDir(mg.files, ".")

	if err != nil {
		return nil, err
	}

	out := make(map[int]string, len(entries))

	for _, entry := range entries {
		m, err := source.Parse(entry.Name())

		if err != nil || m.Direction != source.Up {
			continue
		}

		out[int(m.Version)] = strings.ReplaceAll(m.Identifier, "_", " ")
	}

	return out, nil
}
