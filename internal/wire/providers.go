package wire

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/streamguard/streamguard/internal/api"
	"github.com/streamguard/streamguard/internal/config"
	"github.com/streamguard/streamguard/internal/service"
)

// ProviderSet is the main provider set that includes all application dependencies.
var ProviderSet = wire.NewSet(
	StoreSet,
	ServiceSet,
	HandlerSet,
	ProvideLogger,
	ProvideRouter,
	ProvideApplication,
)

// Application holds all the dependencies needed to run the server.
type Application struct {
	Config   *config.Config
	Logger   *zap.Logger
	Router   *gin.Engine
	Handlers *api.Handlers
	Engine   *service.AlertEngine

	// Store wrapper with cleanup
	storeWrapper *StateStoreResult
}

// Start starts the evaluation scheduler if auto-start is enabled.
func (a *Application) Start() {
	if a.Config.Engine.AutoStart {
		a.Engine.Start()
	}
}

// Cleanup releases all resources.
func (a *Application) Cleanup() {
	if a.storeWrapper != nil && a.storeWrapper.Cleanup != nil {
		a.storeWrapper.Cleanup()
	}
}

// ProvideLogger creates a configured zap logger.
func ProvideLogger(cfg *config.Config) *zap.Logger {
	var zapConfig zap.Config
	if cfg.IsDevelopment() {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	logger, err := zapConfig.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	return logger
}

// ProvideRouter creates the Gin router with all routes configured.
func ProvideRouter(h *api.Handlers, cfg *config.Config, logger *zap.Logger) *gin.Engine {
	return api.SetupRouter(h, cfg, logger)
}

// ProvideApplication creates the main Application struct with all dependencies.
func ProvideApplication(
	cfg *config.Config,
	logger *zap.Logger,
	storeWrapper *StateStoreResult,
	router *gin.Engine,
	handlers *api.Handlers,
	engine *service.AlertEngine,
) *Application {
	return &Application{
		Config:       cfg,
		Logger:       logger,
		Router:       router,
		Handlers:     handlers,
		Engine:       engine,
		storeWrapper: storeWrapper,
	}
}
