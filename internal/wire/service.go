package wire

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/streamguard/streamguard/internal/config"
	"github.com/streamguard/streamguard/internal/repository"
	"github.com/streamguard/streamguard/internal/service"
	"github.com/streamguard/streamguard/internal/source"
)

// ServiceSet provides the engine and its collaborators.
var ServiceSet = wire.NewSet(
	ProvideSnapshotProvider,
	ProvideDeliveryService,
	ProvideListenerBus,
	ProvideAlertEngine,
)

// ProvideSnapshotProvider creates the eKuiper metrics client.
func ProvideSnapshotProvider(cfg *config.Config, logger *zap.Logger) source.SnapshotProvider {
	return source.NewKuiperClient(cfg.Kuiper.BaseURL, cfg.Kuiper.Timeout, logger)
}

// ProvideDeliveryService creates the webhook delivery service.
func ProvideDeliveryService(logger *zap.Logger) *service.DeliveryService {
	return service.NewDeliveryService(logger)
}

// ProvideListenerBus creates the in-process event bus.
func ProvideListenerBus(logger *zap.Logger) *service.ListenerBus {
	return service.NewListenerBus(logger)
}

// ProvideAlertEngine creates the alert engine with configured options.
func ProvideAlertEngine(
	cfg *config.Config,
	store repository.StateStore,
	src source.SnapshotProvider,
	deliverer *service.DeliveryService,
	bus *service.ListenerBus,
	logger *zap.Logger,
) *service.AlertEngine {
	return service.NewAlertEngine(
		service.EngineOptions{
			EvaluationInterval: cfg.Engine.EvaluationInterval,
			HistoryLimit:       cfg.Engine.HistoryLimit,
		},
		store,
		src,
		deliverer,
		bus,
		logger,
	)
}
