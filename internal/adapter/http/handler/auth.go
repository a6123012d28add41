package handler

import (
	"errors"
	"net/http"

	. "todoweb/internal/adapter/http/helper"
	"todoweb/internal/adapter/http/middleware"
	"todoweb/internal/adapter/http/render"
	"todoweb/internal/adapter/http/validation"
	"todoweb/internal/core/domain"
	"todoweb/internal/core/model/request"
	"todoweb/internal/core/port"
	"todoweb/internal/core/security"
	"todoweb/pkg/config"
	. "todoweb/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc       port.AuthService
	sessions  *middleware.SessionManager
	validator *validation.Validator
	metrics   *AppMetrics
	Logger    *config.Logger
}

func NewAuthHandler(svc port.AuthService, sessions *middleware.SessionManager, validator *validation.Validator, metrics *AppMetrics, logger *config.Logger) *AuthHandler {
	return &AuthHandler{
		svc:       svc,
		sessions:  sessions,
		validator: validator,
		metrics:   metrics,
		Logger:    logger,
	}
}

func (a *AuthHandler) ShowRegister(c *gin.Context) {
	Render(c, http.StatusOK, render.RegisterPage, render.Page{Title: "Register"})
}

func (a *AuthHandler) Register(c *gin.Context) {
	ctx, span := tracer.StartSpan(c.Request.Context(), "handler.auth.Register")
	defer endSpan(c, span)

	var params request.RegisterRequest
	_ = c.ShouldBind(&params)

	page := render.Page{Title: "Register", Username: params.Username}

	if err := a.validator.Struct(params); err != nil {
		middleware.AddFlash(c, "error", a.validator.FirstMessage(err))
		Render(c, http.StatusOK, render.RegisterPage, page)
		return
	}

	user, err := a.svc.CreateUser(ctx, params.Username, params.Password, params.PasswordConfirm)
	a.metrics.RecordUserOperation(ctx, "register", err)

	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			AddSpanError(span, err)
			a.Logger.ErrorWithTrace(ctx, "Failed to register user", zap.Error(err))
		}

		middleware.AddFlash(c, "error", domain.UserMessage(err))
		Render(c, http.StatusOK, render.RegisterPage, page)
		return
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))

	RedirectWithFlash(c, "/login", "success", "Registration successful! Please log in.")
}

func (a *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, render.LoginPage, render.Page{Title: "Login", Next: safeNext(c)})
}

func (a *AuthHandler) Login(c *gin.Context) {
	ctx, span := tracer.StartSpan(c.Request.Context(), "handler.auth.Login")
	defer endSpan(c, span)

	var params request.LoginRequest
	_ = c.ShouldBind(&params)

	next := safeNext(c)
	page := render.Page{Title: "Login", Username: params.Username, Next: next}

	if err := a.validator.Struct(params); err != nil {
		middleware.AddFlash(c, "error", a.validator.FirstMessage(err))
		Render(c, http.StatusOK, render.LoginPage, page)
		return
	}

	state := middleware.GetState(c)

	session, user, err := a.svc.Login(ctx, state.Session.ID, params.Username, params.Password)
	a.metrics.RecordUserOperation(ctx, "login", err)

	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			AddSpanEvent(span, "auth.invalid_credentials")
		} else {
			AddSpanError(span, err)
			a.Logger.ErrorWithTrace(ctx, "Failed to log in", zap.Error(err))
		}

		middleware.AddFlash(c, "error", domain.UserMessage(err))
		Render(c, http.StatusOK, render.LoginPage, page)
		return
	}

	if err := a.sessions.Login(c, state, session, user); err != nil {
		AddSpanError(span, err)
		a.Logger.ErrorWithTrace(ctx, "Failed to issue session", zap.Error(err))
		SendInternalError(c)
		return
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))

	if next == "" {
		next = "/"
	}

	RedirectWithFlash(c, next, "success", "Welcome back, "+user.Username+"!")
}

func (a *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	state := middleware.GetState(c)
	user := state.User

	if err := a.svc.Logout(ctx, state.Session.ID); err != nil {
		a.Logger.ErrorWithTrace(ctx, "Failed to log out", zap.Error(err))
		SendInternalError(c)
		return
	}

	if err := a.sessions.Reset(c, state); err != nil {
		a.Logger.ErrorWithTrace(ctx, "Failed to reset session", zap.Error(err))
		SendInternalError(c)
		return
	}

	a.metrics.RecordUserOperation(ctx, "logout", nil)

	RedirectWithFlash(c, "/login", "info", "You have been logged out, "+user.Username+".")
}

// safeNext returns the post-login destination when it stays on this site.
func safeNext(c *gin.Context) string {
	next := c.Query("next")

	if security.IsSafeRedirectTarget(next) {
		return next
	}

	return ""
}
