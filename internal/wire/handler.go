package wire

import (
	"github.com/google/wire"

	"github.com/streamguard/streamguard/internal/api"
	"github.com/streamguard/streamguard/internal/api/handlers"
)

// HandlerSet provides all HTTP handlers.
var HandlerSet = wire.NewSet(
	handlers.NewHealthHandler,
	handlers.NewAlertHandler,
	ProvideHandlers,
)

// ProvideHandlers aggregates the handlers for the router.
func ProvideHandlers(
	health *handlers.HealthHandler,
	alert *handlers.AlertHandler,
) *api.Handlers {
	return &api.Handlers{
		Health: health,
		Alert:  alert,
	}
}
