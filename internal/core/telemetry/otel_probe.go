package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"todoweb/internal/core/port"
)

const tracerName = "todoweb"

// OTELProbe implements Telemetry using OpenTelemetry
type OTELProbe struct {
	logger *otelzap.Logger
}

func NewOTELProbe(logger *otelzap.Logger) port.Telemetry {
	return &OTELProbe{logger: logger}
}

type OTelSpan struct {
	span trace.Span
}

func (s *OTelSpan) End() {
	s.span.End()
}

func (s *OTelSpan) SetAttributes(attrs map[string]any) {
	s.span.SetAttributes(toAttributes(attrs)...)
}

func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func toAttributes(attrs map[string]any) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))

	for key, value := range attrs {
		switch v := value.(type) {
		case string:
			out = append(out, attribute.String(key, v))
		case int:
			out = append(out, attribute.Int(key, v))
		case int64:
			out = append(out, attribute.Int64(key, v))
		case bool:
			out = append(out, attribute.Bool(key, v))
		default:
			out = append(out, attribute.String(key, fmt.Sprintf("%v", v)))
		}
	}

	return out
}

func (p *OTELProbe) StartRepositorySpan(ctx context.Context, operation, entity string, attrs map[string]any) (context.Context, port.Span) {
	standard := []attribute.KeyValue{
		attribute.String("repository.entity", entity),
		attribute.String("repository.operation", operation),
		attribute.String("component", "repository"),
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx,
		fmt.Sprintf("repository.%s.%s", entity, operation),
		trace.WithAttributes(append(standard, toAttributes(attrs)...)...),
	)

	return ctx, &OTelSpan{span: span}
}

func (p *OTELProbe) StartServiceSpan(ctx context.Context, service, operation string, userID int) (context.Context, port.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx,
		fmt.Sprintf("service.%s.%s", service, operation),
		trace.WithAttributes(
			attribute.String("service.name", service),
			attribute.String("service.operation", operation),
			attribute.Int("user.id", userID),
			attribute.String("component", "service"),
		),
	)

	return ctx, &OTelSpan{span: span}
}

func (p *OTELProbe) RecordRepositoryOperation(ctx context.Context, operation, entity string, duration time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int64("duration_ns", duration.Nanoseconds()),
		attribute.Bool("has_error", err != nil),
	)

	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	p.logger.Ctx(ctx).Error("repository operation failed",
		zap.String("operation", operation),
		zap.String("entity", entity),
		zap.Duration("duration", duration),
		zap.Error(err),
	)
}

func (p *OTELProbe) RecordServiceOperation(ctx context.Context, service, operation string, userID int, duration time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int64("duration_ns", duration.Nanoseconds()),
		attribute.Bool("has_error", err != nil),
	)

	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	p.logger.Ctx(ctx).Warn("service operation failed",
		zap.String("service", service),
		zap.String("operation", operation),
		zap.Int("user_id", userID),
		zap.Duration("duration", duration),
		zap.Error(err),
	)
}
