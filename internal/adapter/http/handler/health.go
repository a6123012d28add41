package handler

import (
	"net/http"

	"todoweb/internal/core/model/response"
	"todoweb/internal/core/port"
	"todoweb/pkg/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HealthHandler struct {
	migrator port.Migrator
	Logger   *config.Logger
}

func NewHealthHandler(migrator port.Migrator, logger *config.Logger) *HealthHandler {
	return &HealthHandler{
		migrator: migrator,
		Logger:   logger,
	}
}

// Health reports the applied schema version; a database that cannot be read
// makes the instance unavailable.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	version, err := h.migrator.CurrentVersion(ctx)

	if err != nil {
		h.Logger.ErrorWithTrace(ctx, "Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, response.HealthResponse{Status: "unavailable", Error: "database unavailable"})
		return
	}

	c.JSON(http.StatusOK, response.HealthResponse{Status: "ok", SchemaVersion: version})
}
