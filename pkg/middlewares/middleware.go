package middlewares

import (
	"strconv"
	"time"

	. "todoweb/pkg/config"
	. "todoweb/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func MetricsMiddleware(metrics *AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.IncrementActiveConnections(c.Request.Context())
		defer metrics.DecrementActiveConnections(c.Request.Context())

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RecordRequest(
			c.Request.Context(),
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}

// SetupGinMiddleware installs the transport-level chain: HTTPS redirect,
// security headers, tracing, access log and request metrics. Session,
// CSRF and rate limiting are installed by the HTTP adapter.
func SetupGinMiddleware(router *gin.Engine, serviceName string, metrics *AppMetrics, logger *Logger, config *AppConfig) {
	httpsEnforcer := NewHTTPSEnforcer(config.EnforceHTTPS, logger.Zap())
	if httpsEnforcer.IsEnabled() {
		router.Use(httpsEnforcer.HTTPSMiddleware())
	}

	router.Use(SecurityHeaders(DefaultHeadersConfig(config.IsProduction())))

	router.Use(otelgin.Middleware(serviceName))

	router.Use(LoggingMiddleware(logger))

	if metrics != nil {
		router.Use(MetricsMiddleware(metrics))
	}
}
