package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "todoweb/pkg/config"
	. "todoweb/pkg/tracing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSecurityHeaders(t *testing.T) {
	RegisterTestingT(t)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(SecurityHeaders(DefaultHeadersConfig(true)))
	router.GET("/", func(c *gin.Context) { c.String(200, "ok") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	Expect(w.Header().Get("X-Frame-Options")).To(Equal("DENY"))
	Expect(w.Header().Get("X-Content-Type-Options")).To(Equal("nosniff"))
	Expect(w.Header().Get("Content-Security-Policy")).To(ContainSubstring("frame-ancestors 'none'"))
	Expect(w.Header().Get("Strict-Transport-Security")).To(Equal("max-age=31536000; includeSubDomains"))
}

func TestSecurityHeaders_NoHSTSOutsideProduction(t *testing.T) {
	RegisterTestingT(t)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(SecurityHeaders(DefaultHeadersConfig(false)))
	router.GET("/", func(c *gin.Context) { c.String(200, "ok") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	Expect(w.Header().Get("Strict-Transport-Security")).To(BeEmpty())
}

func TestMetricsMiddleware_StatusLabel(t *testing.T) {
	RegisterTestingT(t)
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	metrics := NewAppMetrics(registry)

	router := gin.New()
	router.Use(MetricsMiddleware(metrics))
	router.GET("/missing", func(c *gin.Context) { c.String(404, "nope") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/missing", nil)
	router.ServeHTTP(w, req)

	count, err := testutil.GatherAndCount(registry, "http_requests_total")
	Expect(err).NotTo(HaveOccurred())
	Expect(count).To(Equal(1))

	families, _ := registry.Gather()
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, label := range family.GetMetric()[0].GetLabel() {
			if label.GetName() == "status" {
				Expect(label.GetValue()).To(Equal("404"))
			}
		}
	}
}

func TestLoggingMiddleware(t *testing.T) {
	RegisterTestingT(t)
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zap.InfoLevel)
	logger := WrapLogger(zap.New(core), "test")

	router := gin.New()
	router.Use(LoggingMiddleware(logger))
	router.GET("/", func(c *gin.Context) { c.String(200, "ok") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	Expect(logs.FilterMessage("HTTP Request").Len()).To(Equal(1))
	Expect(logs.All()[0].ContextMap()["status"]).To(Equal(int64(200)))
}
