package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"todoweb/internal/adapter/http/routes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func NewRouter(c *Container) *gin.Engine {
	return routes.SetupRouterWithConfig(routes.HandlersConfig{
		AuthHandler:   c.AuthHandler,
		TodoHandler:   c.TodoHandler,
		HealthHandler: c.HealthHandler,
		ErrorHandler:  c.ErrorHandler,
		Sessions:      c.SessionManager,
		Audit:         c.Audit,
		RateLimiter:   c.RateLimiter,
		Templates:     c.Templates,
	}, c.Metrics, c.Logger, c.Config)
}

// StartServerWithConfig serves until ctx is cancelled, then drains in-flight
// requests.
func StartServerWithConfig(ctx context.Context, c *Container, addr string) error {
	if addr == "" {
		addr = c.Config.Addr()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(c),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	c.Logger.Logger.Info("Server starting",
		zap.String("addr", addr),
		zap.String("environment", c.Config.Environment),
		zap.Bool("rate_limit_enabled", c.Config.RateLimitEnabled),
		zap.Bool("https_enforced", c.Config.EnforceHTTPS))

	errCh := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.Logger.Logger.Info("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return <-errCh
}
