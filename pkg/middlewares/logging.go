package middlewares

import (
	"time"

	. "todoweb/pkg/config"
	ct "todoweb/pkg/context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func LoggingMiddleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		requestID, _ := ct.GetCurrent(c.Request.Context()).GetString(ct.RequestIDKey)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.String("request_id", requestID),
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Logger.Ctx(c.Request.Context()).Error("HTTP Request", fields...)
		default:
			logger.Logger.Ctx(c.Request.Context()).Info("HTTP Request", fields...)
		}
	}
}
