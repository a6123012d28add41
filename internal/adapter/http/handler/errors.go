package handler

import (
	"fmt"
	"time"

	. "todoweb/internal/adapter/http/helper"
	"todoweb/internal/adapter/http/middleware"
	"todoweb/internal/core/port"
	"todoweb/pkg/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorHandler struct {
	audit  port.AuditLogger
	Logger *config.Logger
}

func NewErrorHandler(audit port.AuditLogger, logger *config.Logger) *ErrorHandler {
	return &ErrorHandler{
		audit:  audit,
		Logger: logger,
	}
}

func (e *ErrorHandler) NotFound(c *gin.Context) {
	e.Logger.InfoWithTrace(c.Request.Context(), "Page not found",
		zap.String("path", c.Request.URL.Path),
		zap.String("client_ip", c.ClientIP()))

	SendNotFound(c)
}

// Recovered renders the generic error page after a handler panic.
func (e *ErrorHandler) Recovered(c *gin.Context, recovered any) {
	e.Logger.ErrorWithTrace(c.Request.Context(), "Server error",
		zap.String("panic", fmt.Sprint(recovered)),
		zap.String("path", c.Request.URL.Path),
		zap.Stack("stack"))

	SendInternalError(c)
	c.Abort()
}

// RateLimited renders the throttling page and records the event.
func (e *ErrorHandler) RateLimited(c *gin.Context, limit config.RateLimitEndpointConfig, retryAfter time.Duration) {
	var userID *int
	if user := middleware.CurrentUser(c); user != nil {
		userID = &user.ID
	}

	e.audit.LogSecurityEvent(c.Request.Context(), port.EventRateLimited, map[string]any{
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"limit":       limit.Requests,
		"window":      limit.Window.String(),
		"retry_after": retryAfter.Round(time.Second).String(),
	}, userID)

	SendTooManyRequests(c)
}
