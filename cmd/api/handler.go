package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	authUsecase "push-relay/internal/auth/usecase"
	deviceDelivery "push-relay/internal/device/delivery"
	deviceUsecase "push-relay/internal/device/usecase"
	pushDelivery "push-relay/internal/push/delivery"
	pushUsecase "push-relay/internal/push/usecase"
	"push-relay/pkg/config"
	"push-relay/pkg/metrics"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase   authUsecase.AuthUsecase
	deviceHandler *deviceDelivery.DeviceHandler
	pushHandler   *pushDelivery.PushHandler
	metrics       *metrics.Metrics
	config        *config.Config
}

// NewHandler wires the HTTP layer. authUc is nil when JWT_SECRET is not configured.
func NewHandler(deviceUc deviceUsecase.DeviceUsecase, pushUc pushUsecase.PushUsecase, authUc authUsecase.AuthUsecase, m *metrics.Metrics, cfg *config.Config) *Handler {
	if authUc == nil {
		log.Warn("JWT_SECRET not set, device and push routes are unauthenticated")
	}

	return &Handler{
		authUsecase:   authUc,
		deviceHandler: deviceDelivery.NewDeviceHandler(deviceUc),
		pushHandler:   pushDelivery.NewPushHandler(pushUc),
		metrics:       m,
		config:        cfg,
	}
}

// Engine builds the gin engine with middleware and routes
func (h *Handler) Engine() *gin.Engine {
	if h.config.GinMode != "" {
		gin.SetMode(h.config.GinMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(secureHeaders(gin.Mode() != gin.ReleaseMode))
	r.Use(corsMiddleware())

	SetupRoutes(r, h.deviceHandler, h.pushHandler, h.authUsecase, h.metrics, h.config)
	return r
}

// Start serves on addr until ctx is canceled, then drains in-flight requests
func (h *Handler) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server starting on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
