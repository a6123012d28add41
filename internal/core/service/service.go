package service

import (
	"context"
	"time"

	"todoweb/internal/core/port"
	"todoweb/internal/core/telemetry"
)

type Clock func() time.Time

// observe opens a service span and returns the function that closes it
// with the operation outcome.
func observe(ctx context.Context, probe port.Telemetry, service, operation string, userID int) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := probe.StartServiceSpan(ctx, service, operation, userID)

	return ctx, func(err error) {
		probe.RecordServiceOperation(ctx, service, operation, userID, time.Since(start), err)
		span.End()
	}
}

func probeOrNoop(probe port.Telemetry) port.Telemetry {
	if probe == nil {
		return telemetry.NewNoOpProbe()
	}

	return probe
}
