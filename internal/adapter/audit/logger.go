// Package audit writes the security audit trail to its own zap logger.
package audit

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"todoweb/internal/core/port"
	ct "todoweb/pkg/context"
)

type Logger struct {
	logger *zap.Logger
	events *prometheus.CounterVec
}

var _ port.AuditLogger = (*Logger)(nil)

// New writes JSON records to stdout and, when path is set, to that file too.
func New(path string, registry prometheus.Registerer) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = nil
	cfg.DisableStacktrace = true

	if path != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, path)
	}

	logger, err := cfg.Build()

	if err != nil {
		return nil, err
	}

	return NewWithLogger(logger, registry), nil
}

func NewWithLogger(logger *zap.Logger, registry prometheus.Registerer) *Logger {
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_events_total",
			Help: "Security audit events by type",
		},
		[]string{"event_type"},
	)

	if registry != nil {
		if err := registry.Register(events); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				events = already.ExistingCollector.(*prometheus.CounterVec)
			}
		}
	}

	return &Logger{
		logger: logger.Named("audit"),
		events: events,
	}
}

func (l *Logger) LogSecurityEvent(ctx context.Context, eventType string, details map[string]any, userID *int) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("audit log failure", zap.Any("panic", r), zap.String("event_type", eventType))
		}
	}()

	current := ct.GetCurrent(ctx)

	fields := []zap.Field{
		zap.String("event_type", eventType),
		zap.Any("details", details),
	}

	if userID != nil {
		fields = append(fields, zap.Int("user_id", *userID))
	}

	for _, key := range []string{ct.RequestIDKey, ct.IPAddressKey, ct.UserAgentKey} {
		if value, ok := current.GetString(key); ok && value != "" {
			fields = append(fields, zap.String(key, value))
		}
	}

	l.logger.Warn("SECURITY_EVENT", fields...)
	l.events.WithLabelValues(eventType).Inc()
}

func (l *Logger) Sync() error {
	return l.logger.Sync()
}
