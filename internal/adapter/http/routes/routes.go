package routes

import (
	"html/template"

	"todoweb/internal/adapter/http/handler"
	"todoweb/internal/adapter/http/middleware"
	"todoweb/internal/core/port"
	. "todoweb/pkg/config"
	"todoweb/pkg/middlewares"
	. "todoweb/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HandlersConfig struct {
	AuthHandler   *handler.AuthHandler
	TodoHandler   *handler.TodoHandler
	HealthHandler *handler.HealthHandler
	ErrorHandler  *handler.ErrorHandler

	Sessions *middleware.SessionManager
	Audit    port.AuditLogger
	// RateLimiter nil disables throttling.
	RateLimiter *RateLimiter
	Templates   *template.Template
}

func SetupRouterWithConfig(handlers HandlersConfig, metrics *AppMetrics, logger *Logger, config *AppConfig) *gin.Engine {
	router := gin.New()

	if err := router.SetTrustedProxies(config.TrustedProxies); err != nil {
		logger.Zap().Warn("Ignoring invalid trusted proxies", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}

	middlewares.SetupGinMiddleware(router, "todoweb", metrics, logger, config)

	router.Use(gin.CustomRecovery(handlers.ErrorHandler.Recovered))
	router.Use(middleware.CurrentMiddleware())

	router.SetHTMLTemplate(handlers.Templates)
	router.NoRoute(handlers.ErrorHandler.NotFound)

	router.GET("/healthz", handlers.HealthHandler.Health)

	web := router.Group("/")
	web.Use(handlers.Sessions.Load())
	web.Use(middleware.BodyLimitMiddleware(config.MaxBodyBytes, logger.Zap()))

	if handlers.RateLimiter != nil {
		handlers.RateLimiter.OnLimited = handlers.ErrorHandler.RateLimited
		web.Use(handlers.RateLimiter.RateLimitMiddleware())
	}

	// Guards run before CSRF: a post from an expired session goes to the
	// login page.
	csrf := middleware.CSRFMiddleware(handlers.Audit)

	setupPublicRoutes(web, csrf, handlers.AuthHandler)
	setupProtectedRoutes(web, csrf, handlers.AuthHandler, handlers.TodoHandler)

	return router
}

func setupPublicRoutes(web *gin.RouterGroup, csrf gin.HandlerFunc, authHandler *handler.AuthHandler) {
	public := web.Group("/", middleware.RequireUser(middleware.AnonymousGuard), csrf)
	{
		public.GET("/register", authHandler.ShowRegister)
		public.POST("/register", authHandler.Register)
		public.GET("/login", authHandler.ShowLogin)
		public.POST("/login", authHandler.Login)
	}
}

func setupProtectedRoutes(web *gin.RouterGroup, csrf gin.HandlerFunc, authHandler *handler.AuthHandler, todoHandler *handler.TodoHandler) {
	protected := web.Group("/", middleware.RequireUser(middleware.AuthGuard), csrf)
	{
		protected.GET("/", todoHandler.Index)
		protected.POST("/add", todoHandler.Add)
		protected.POST("/toggle/:id", todoHandler.Toggle)
		protected.POST("/delete/:id", todoHandler.Delete)
		protected.POST("/logout", authHandler.Logout)
	}
}
