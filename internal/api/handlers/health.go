package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/streamguard/streamguard/internal/service"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	engine *service.AlertEngine
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(engine *service.AlertEngine) *HealthHandler {
	return &HealthHandler{engine: engine}
}

// Health reports process liveness
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports readiness, including the engine scheduler state
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"engine_running": h.engine.Running(),
	})
}
