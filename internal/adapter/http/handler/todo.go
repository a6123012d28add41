package handler

import (
	"errors"
	"net/http"
	"strconv"

	. "todoweb/internal/adapter/http/helper"
	"todoweb/internal/adapter/http/middleware"
	"todoweb/internal/adapter/http/render"
	"todoweb/internal/adapter/http/validation"
	"todoweb/internal/core/domain"
	"todoweb/internal/core/model/request"
	"todoweb/internal/core/port"
	"todoweb/pkg/config"
	. "todoweb/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type TodoHandler struct {
	svc       port.TodoService
	validator *validation.Validator
	metrics   *AppMetrics
	Logger    *config.Logger
}

func NewTodoHandler(svc port.TodoService, validator *validation.Validator, metrics *AppMetrics, logger *config.Logger) *TodoHandler {
	return &TodoHandler{
		svc:       svc,
		validator: validator,
		metrics:   metrics,
		Logger:    logger,
	}
}

func (t *TodoHandler) Index(c *gin.Context) {
	ctx, span := tracer.StartSpan(c.Request.Context(), "handler.todo.Index")
	defer endSpan(c, span)

	user := middleware.CurrentUser(c)

	todos, err := t.svc.ListOwn(ctx, *user)
	t.metrics.RecordTodoOperation(ctx, "list", err)

	if err != nil {
		AddSpanError(span, err)
		t.Logger.ErrorWithTrace(ctx, "Failed to list todos", zap.Error(err), zap.Int("user_id", user.ID))
		SendInternalError(c)
		return
	}

	span.SetAttributes(attribute.Int("todo.count", len(todos)))

	Render(c, http.StatusOK, render.IndexPage, render.Page{Title: "My Todos", Todos: todos})
}

func (t *TodoHandler) Add(c *gin.Context) {
	ctx, span := tracer.StartSpan(c.Request.Context(), "handler.todo.Add")
	defer endSpan(c, span)

	user := middleware.CurrentUser(c)

	var params request.TodoRequest
	_ = c.ShouldBind(&params)

	if err := t.validator.Struct(params); err != nil {
		RedirectWithFlash(c, "/", "error", t.validator.FirstMessage(err))
		return
	}

	todo, err := t.svc.Add(ctx, *user, params.Description)
	t.metrics.RecordTodoOperation(ctx, "add", err)

	if err != nil {
		t.fail(c, span, err, "adding")
		return
	}

	span.SetAttributes(attribute.Int("todo.id", todo.ID))

	RedirectWithFlash(c, "/", "success", "Todo added successfully!")
}

func (t *TodoHandler) Toggle(c *gin.Context) {
	ctx, span := tracer.StartSpan(c.Request.Context(), "handler.todo.Toggle")
	defer endSpan(c, span)

	id, ok := todoID(c)
	if !ok {
		SendNotFound(c)
		return
	}

	todo, err := t.svc.Toggle(ctx, *middleware.CurrentUser(c), id)
	t.metrics.RecordTodoOperation(ctx, "toggle", err)

	if err != nil {
		t.fail(c, span, err, "updating")
		return
	}

	span.SetAttributes(attribute.Int("todo.id", todo.ID), attribute.Bool("todo.completed", todo.Completed))

	RedirectWithFlash(c, "/", "success", "Todo marked as "+todo.StatusLabel()+"!")
}

func (t *TodoHandler) Delete(c *gin.Context) {
	ctx, span := tracer.StartSpan(c.Request.Context(), "handler.todo.Delete")
	defer endSpan(c, span)

	id, ok := todoID(c)
	if !ok {
		SendNotFound(c)
		return
	}

	err := t.svc.Delete(ctx, *middleware.CurrentUser(c), id)
	t.metrics.RecordTodoOperation(ctx, "delete", err)

	if err != nil {
		t.fail(c, span, err, "deleting")
		return
	}

	span.SetAttributes(attribute.Int("todo.id", id))

	RedirectWithFlash(c, "/", "success", "Todo deleted successfully!")
}

// fail flashes the user-facing text for err. Storage failures are logged in
// full and shown only as a generic message.
func (t *TodoHandler) fail(c *gin.Context, span trace.Span, err error, action string) {
	message := domain.UserMessage(err)

	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrNotFound):
		AddSpanEvent(span, "todo.rejected", attribute.String("todo.action", action), attribute.String("reason", err.Error()))

		if action == "deleting" && !errors.Is(err, domain.ErrValidation) {
			message = "Todo not found or you don't have permission to delete it."
		}
	default:
		AddSpanError(span, err)
		t.Logger.ErrorWithTrace(c.Request.Context(), "Todo operation failed",
			zap.Error(err),
			zap.String("action", action),
			zap.Int("user_id", middleware.CurrentUser(c).ID))

		message = "An error occurred while " + action + " the todo. Please try again."
	}

	RedirectWithFlash(c, "/", "error", message)
}

func todoID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))

	return id, err == nil && id > 0
}
