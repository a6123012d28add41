package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	server "todoweb/internal/adapter/http"
	. "todoweb/pkg/config"
	. "todoweb/pkg/tracing"
)

const (
	serviceName    = "todoweb"
	serviceVersion = "1.0.0"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var envFile, addr string
	var migrateOnly bool

	flagSet := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flagSet.StringVar(&addr, "addr", "", "listen address (default HOST:PORT)")
	flagSet.BoolVar(&migrateOnly, "migrate-only", false, "apply pending migrations and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	config, err := Load(envFile)
	if err != nil {
		return err
	}

	logger, err := NewLogger(serviceName, config.LogLevel)
	if err != nil {
		return err
	}

	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetry, err := InitTelemetry(ctx, TelemetryConfig{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    config.Environment,
		MetricsAddr:    config.MetricsAddr(),
		OTLPEndpoint:   config.OTLPEndpoint,
	}, logger.Zap())
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}

	defer func() {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			logger.Logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	container, err := server.NewContainer(ctx, config, logger, telemetry.Metrics, telemetry.PrometheusRegistry)
	if err != nil {
		return err
	}

	defer container.Close()

	version, err := container.Migrator.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	logger.Logger.Info("Database ready", zap.Int("schema_version", version))

	if migrateOnly {
		return nil
	}

	return server.StartServerWithConfig(ctx, container, addr)
}
