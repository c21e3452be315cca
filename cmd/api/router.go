package api

import (
	authDelivery "push-relay/internal/auth/delivery"
	authUsecase "push-relay/internal/auth/usecase"
	deviceDelivery "push-relay/internal/device/delivery"
	pushDelivery "push-relay/internal/push/delivery"
	"push-relay/pkg/config"
	"push-relay/pkg/metrics"
	"push-relay/pkg/response"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the relay endpoints. authUc may be nil, which leaves every route open.
func SetupRoutes(r *gin.Engine, deviceHandler *deviceDelivery.DeviceHandler, pushHandler *pushDelivery.PushHandler, authUc authUsecase.AuthUsecase, m *metrics.Metrics, cfg *config.Config) {
	// Health check (no auth required)
	r.GET("/health", func(c *gin.Context) {
		response.OK(c, nil)
	})

	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	protected := []gin.HandlerFunc{}
	if authUc != nil {
		protected = append(protected, authDelivery.AuthMiddleware(authUc))
	}

	// Device routes
	devices := r.Group("/devices", protected...)
	{
		devices.POST("/register", deviceHandler.Register)
		devices.POST("/remove", deviceHandler.Remove)
	}

	// Push routes
	push := r.Group("/push", protected...)
	push.Use(rateLimit(cfg.PushRateLimit, cfg.PushRateBurst))
	{
		push.POST("/token", pushHandler.SendToToken)
		push.POST("/user", pushHandler.SendToUser)
		push.POST("/all", pushHandler.SendToAll)
		push.POST("/topic", pushHandler.SendToAll)
	}
}
