package http

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html/template"

	"todoweb/internal/adapter/audit"
	"todoweb/internal/adapter/database/migration"
	"todoweb/internal/adapter/database/postgres"
	pgrepository "todoweb/internal/adapter/database/postgres/repository"
	"todoweb/internal/adapter/database/sqlite"
	"todoweb/internal/adapter/database/sqlite/repository"
	"todoweb/internal/adapter/http/handler"
	"todoweb/internal/adapter/http/middleware"
	"todoweb/internal/adapter/http/render"
	"todoweb/internal/adapter/http/validation"
	"todoweb/internal/adapter/session"
	"todoweb/internal/core/port"
	"todoweb/internal/core/service"
	"todoweb/internal/core/telemetry"
	"todoweb/pkg/config"
	"todoweb/pkg/tracing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Container struct {
	Config  *config.AppConfig
	Logger  *config.Logger
	Metrics *tracing.AppMetrics

	Migrator port.Migrator
	UserRepo port.UserRepository
	TodoRepo port.TodoRepository
	Sessions port.SessionStore
	Audit    port.AuditLogger

	AuthService port.AuthService
	TodoService port.TodoService

	SessionManager *middleware.SessionManager
	RateLimiter    *config.RateLimiter
	Templates      *template.Template

	AuthHandler   *handler.AuthHandler
	TodoHandler   *handler.TodoHandler
	HealthHandler *handler.HealthHandler
	ErrorHandler  *handler.ErrorHandler

	closers []func() error
}

type Option func(*Container)

// WithAuditLogger replaces the zap audit logger.
func WithAuditLogger(logger port.AuditLogger) Option {
	return func(c *Container) {
		c.Audit = logger
	}
}

func WithSessionStore(store port.SessionStore) Option {
	return func(c *Container) {
		c.Sessions = store
	}
}

// NewContainer opens the configured database, applies pending migrations
// and wires every collaborator. Close releases what it opened.
func NewContainer(ctx context.Context, cfg *config.AppConfig, logger *config.Logger, metrics *tracing.AppMetrics, registry prometheus.Registerer, opts ...Option) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.build(ctx, registry); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

func (c *Container) build(ctx context.Context, registry prometheus.Registerer) error {
	if err := c.openDatabase(ctx, registry); err != nil {
		return err
	}

	if err := c.Migrator.ApplyPending(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	if c.Sessions == nil {
		store, err := c.openSessionStore(ctx, registry)
		if err != nil {
			return err
		}
		c.Sessions = store
	}

	if c.Audit == nil {
		auditLogger, err := audit.New(c.Config.AuditLogPath, registry)
		if err != nil {
			return fmt.Errorf("audit logger: %w", err)
		}
		c.Audit = auditLogger
		c.closers = append(c.closers, auditLogger.Sync)
	}

	probe := telemetry.NewOTELProbe(c.Logger.Logger)

	c.AuthService = service.NewAuthService(c.UserRepo, c.Sessions, c.Audit, probe)
	c.TodoService = service.NewTodoService(c.TodoRepo, c.AuthService, c.Audit, probe)

	validator, err := validation.New()
	if err != nil {
		return err
	}

	templates, err := render.Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	c.Templates = templates

	c.SessionManager = middleware.NewSessionManager(
		c.Sessions,
		session.NewCookieCodec(c.Config.SecretKey),
		c.AuthService,
		c.Config.SecureCookies,
		c.Logger.Zap(),
	)

	if c.Config.RateLimitEnabled {
		c.RateLimiter = config.NewRateLimiter(c.Logger.Zap(), c.Metrics, c.Config.RateLimitConfigs)
	}

	c.AuthHandler = handler.NewAuthHandler(c.AuthService, c.SessionManager, validator, c.Metrics, c.Logger)
	c.TodoHandler = handler.NewTodoHandler(c.TodoService, validator, c.Metrics, c.Logger)
	c.HealthHandler = handler.NewHealthHandler(c.Migrator, c.Logger)
	c.ErrorHandler = handler.NewErrorHandler(c.Audit, c.Logger)

	return nil
}

func (c *Container) openDatabase(ctx context.Context, registry prometheus.Registerer) error {
	dialect, dsn, err := config.ParseDatabaseURL(c.Config.DatabaseURL)

	if err != nil {
		return err
	}

	probe := telemetry.NewOTELProbe(c.Logger.Logger)

	switch dialect {
	case "postgres":
		db, err := postgres.Open(ctx, dsn)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}

		sqlDB := db.SQL()
		c.closers = append(c.closers, func() error { db.Close(); return nil }, sqlDB.Close)
		registerDBStats(registry, sqlDB, "postgres")

		migrator, err := migration.NewPostgres(sqlDB)
		if err != nil {
			return err
		}

		c.Migrator = migrator
		c.UserRepo = pgrepository.NewUserRepository(db, probe)
		c.TodoRepo = pgrepository.NewTodoRepository(db, probe)
	default:
		opts := sqlite.Options{LogQueries: c.Config.DBLogQueries}
		if dsn == ":memory:" {
			opts.MaxOpenConns = 1
		}

		db, err := sqlite.Open(sqlite.DSN(dsn), opts)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}

		c.closers = append(c.closers, db.Close)
		registerDBStats(registry, db.DB, "sqlite")

		migrator, err := migration.NewSQLite(db.DB)
		if err != nil {
			return err
		}

		c.Migrator = migrator
		c.UserRepo = repository.NewUserRepository(db, probe)
		c.TodoRepo = repository.NewTodoRepository(db, probe)
	}

	return nil
}

// registerDBStats exposes connection pool statistics at scrape time.
func registerDBStats(registry prometheus.Registerer, db *sql.DB, name string) {
	if registry == nil {
		return
	}

	_ = registry.Register(collectors.NewDBStatsCollector(db, name))
}

func (c *Container) openSessionStore(ctx context.Context, registry prometheus.Registerer) (port.SessionStore, error) {
	if c.Config.RedisURL == "" {
		store := session.NewMemoryStore(c.Config.SessionTTL)

		if registry != nil {
			_ = registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "todoweb_sessions_in_memory",
				Help: "Number of sessions held by the in-memory store",
			}, func() float64 { return float64(store.Count()) }))
		}

		return store, nil
	}

	client, err := session.NewRedisClient(ctx, c.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	c.closers = append(c.closers, client.Close)

	return session.NewRedisStore(client, c.Config.SessionTTL), nil
}

// Close runs the registered closers in reverse order.
func (c *Container) Close() error {
	var errs []error

	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	c.closers = nil

	return errors.Join(errs...)
}
