package api

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/streamguard/streamguard/internal/api/handlers"
	"github.com/streamguard/streamguard/internal/api/middleware"
	"github.com/streamguard/streamguard/internal/config"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	Health *handlers.HealthHandler
	Alert  *handlers.AlertHandler
}

// SetupRouter configures the Gin router with all routes and middleware
func SetupRouter(h *Handlers, cfg *config.Config, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.ErrorHandler())

	// CORS configuration for the dashboard frontend
	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if cfg.IsProduction() {
		// In production, restrict to specific domains
		corsOrigins = []string{os.Getenv("CORS_ALLOWED_ORIGINS")}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoints
	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := r.Group("/v1")
	{
		alerts := v1.Group("/alerts")
		{
			// Alert rules
			alerts.POST("/rules", h.Alert.CreateRule)
			alerts.GET("/rules", h.Alert.ListRules)
			alerts.DELETE("/rules/:ruleId", h.Alert.DeleteRule)

			// Notification targets
			alerts.POST("/targets", h.Alert.CreateTarget)
			alerts.GET("/targets", h.Alert.ListTargets)
			alerts.DELETE("/targets/:targetId", h.Alert.DeleteTarget)

			// Alert history and lifecycle
			alerts.GET("/history", h.Alert.ListHistory)
			alerts.POST("/history/:alertId/acknowledge", h.Alert.AcknowledgeAlert)
			alerts.POST("/history/:alertId/resolve", h.Alert.ResolveAlert)
			alerts.POST("/history/:alertId/silence", h.Alert.SilenceAlert)

			// Manual evaluation trigger
			alerts.POST("/evaluate", h.Alert.Evaluate)

			// Scheduler control
			alerts.POST("/engine/start", h.Alert.StartEngine)
			alerts.POST("/engine/stop", h.Alert.StopEngine)
			alerts.GET("/engine/status", h.Alert.EngineStatus)
		}
	}

	return r
}
