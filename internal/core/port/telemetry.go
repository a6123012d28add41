package port

import (
	"context"
	"time"
)

type Span interface {
	End()
	SetAttributes(attrs map[string]any)
	RecordError(err error)
}

// Telemetry is the tracing probe used by services and repositories.
type Telemetry interface {
	StartRepositorySpan(ctx context.Context, operation, entity string, attrs map[string]any) (context.Context, Span)
	StartServiceSpan(ctx context.Context, service, operation string, userID int) (context.Context, Span)

	RecordRepositoryOperation(ctx context.Context, operation, entity string, duration time.Duration, err error)
	RecordServiceOperation(ctx context.Context, service, operation string, userID int, duration time.Duration, err error)
}
