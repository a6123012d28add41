// Package handler holds the HTML and JSON endpoints. Handlers assume the
// session, CSRF and guard middleware have already run.
package handler

import (
	. "todoweb/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

var tracer = NewTracerHelper("todoweb/handler")

// endSpan records the response on span and ends it.
func endSpan(c *gin.Context, span trace.Span) {
	AddHTTPAttributes(span, c.Request.Method, c.FullPath(), c.Writer.Status())
	span.End()
}
