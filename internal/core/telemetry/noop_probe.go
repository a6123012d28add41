package telemetry

import (
	"context"
	"time"

	"todoweb/internal/core/port"
)

// NoOpProbe is a probe that does nothing - useful for testing or when telemetry is disabled
type NoOpProbe struct{}

func NewNoOpProbe() port.Telemetry {
	return &NoOpProbe{}
}

type NoOpSpan struct{}

func (s *NoOpSpan) End()                         {}
func (s *NoOpSpan) SetAttributes(map[string]any) {}
func (s *NoOpSpan) RecordError(error)            {}

func (p *NoOpProbe) StartRepositorySpan(ctx context.Context, _, _ string, _ map[string]any) (context.Context, port.Span) {
	return ctx, &NoOpSpan{}
}

func (p *NoOpProbe) StartServiceSpan(ctx context.Context, _, _ string, _ int) (context.Context, port.Span) {
	return ctx, &NoOpSpan{}
}

func (p *NoOpProbe) RecordRepositoryOperation(context.Context, string, string, time.Duration, error) {}

func (p *NoOpProbe) RecordServiceOperation(context.Context, string, string, int, time.Duration, error) {
}
