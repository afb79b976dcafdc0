package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/eventreg/internal/server/http/dto"
)

// HealthChecker reports whether a backing dependency accepts work.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves the readiness check.
type HealthHandler struct {
	checker HealthChecker
}

func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Ready handles GET /api/health. It answers 503 while the database is unreachable.
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.checker.HealthCheck(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.ErrorResponse{Code: "unavailable", Message: "database unavailable"})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}
