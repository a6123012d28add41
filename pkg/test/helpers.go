package test

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"todoweb/internal/adapter/database/migration"
	"todoweb/internal/adapter/database/sqlite"
	"todoweb/internal/core/port"
)

// InitTestDB opens a private in-memory SQLite database with every
// migration applied. Each call gets its own database.
func InitTestDB() *sqlite.DB {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"

	db, err := sqlite.Open(dsn, sqlite.Options{MaxOpenConns: 1})

	if err != nil {
		log.Fatal(err)
	}

	migrator, err := migration.NewSQLite(db.DB)

	if err != nil {
		log.Fatal(err)
	}

	if err := migrator.ApplyPending(context.Background()); err != nil {
		log.Fatal(err)
	}

	return db
}

type AuditEvent struct {
	Type    string
	Details map[string]any
	UserID  *int
}

// AuditRecorder is an in-memory AuditLogger for assertions.
type AuditRecorder struct {
	mu     sync.Mutex
	events []AuditEvent
}

var _ port.AuditLogger = (*AuditRecorder)(nil)

func NewAuditRecorder() *AuditRecorder {
	return &AuditRecorder{}
}

func (r *AuditRecorder) LogSecurityEvent(_ context.Context, eventType string, details map[string]any, userID *int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, AuditEvent{Type: eventType, Details: details, UserID: userID})
}

func (r *AuditRecorder) Events() []AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]AuditEvent(nil), r.events...)
}

// Types lists the recorded event types in order.
func (r *AuditRecorder) Types() []string {
	events := r.Events()
	types := make([]string, len(events))

	for i, e := range events {
		types[i] = e.Type
	}

	return types
}

// RepositoryCall is one operation reported to a TelemetryRecorder.
type RepositoryCall struct {
	Operation string
	Entity    string
	Err       error
}

// TelemetryRecorder is an in-memory Telemetry that keeps repository calls.
type TelemetryRecorder struct {
	mu    sync.Mutex
	calls []RepositoryCall
}

var _ port.Telemetry = (*TelemetryRecorder)(nil)

func NewTelemetryRecorder() *TelemetryRecorder {
	return &TelemetryRecorder{}
}

type recordedSpan struct{}

func (recordedSpan) End() {}
func (recordedSpan) SetAttributes(map[string]any) {}
func (recordedSpan) RecordError(error) {}

func (r *TelemetryRecorder) StartRepositorySpan(ctx context.Context, _, _ string, _ map[string]any) (context.Context, port.Span) {
	return ctx, recordedSpan{}
}

func (r *TelemetryRecorder) StartServiceSpan(ctx context.Context, _, _ string, _ int) (context.Context, port.Span) {
	return ctx, recordedSpan{}
}

func (r *TelemetryRecorder) RecordRepositoryOperation(_ context.Context, operation, entity string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, RepositoryCall{Operation: operation, Entity: entity, Err: err})
}

func (r *TelemetryRecorder) RecordServiceOperation(context.Context, string, string, int, time.Duration, error) {}

func (r *TelemetryRecorder) Calls() []RepositoryCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]RepositoryCall(nil), r.calls...)
}

// Operations lists "entity.operation" for every recorded call.
func (r *TelemetryRecorder) Operations() []string {
	calls := r.Calls()
	ops := make([]string, len(calls))

	for i, c := range calls {
		ops[i] = c.Entity + "." + c.Operation
	}

	return ops
}
