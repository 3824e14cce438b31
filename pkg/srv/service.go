package srv

import (
	"context"

	"github.com/sandevgo/dissonance/pkg/log"
)

type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// StartServices launches every service in its own goroutine. A service that
// fails to start is logged and left stopped.
func StartServices(ctx context.Context, services ...Service) {
	logger := log.FromCtx(ctx)
	for _, service := range services {
		go func(service Service) {
			if err := service.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msgf("%T failed to start", service)
			}
		}(service)
	}
}

// ShutdownServices stops services in reverse start order.
func ShutdownServices(ctx context.Context, services ...Service) {
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Shutdown(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msgf("%T failed to shutdown", services[i])
		}
	}
}
