package cmd

import (
	"context"
	"fmt"

	api "push-relay/cmd/api"
	"push-relay/db"
	authUsecase "push-relay/internal/auth/usecase"
	deviceRepo "push-relay/internal/device/repository"
	deviceUsecase "push-relay/internal/device/usecase"
	"push-relay/internal/notification"
	pushUsecase "push-relay/internal/push/usecase"
	"push-relay/pkg/config"
	"push-relay/pkg/database"
	"push-relay/pkg/eventbus"
	"push-relay/pkg/fcm"
	"push-relay/pkg/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP relay and, when enabled, the event bus consumer",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := loadConfig()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return runServer(cmd.Context(), cfg)
	},
}

func runServer(ctx context.Context, cfg *config.Config) error {
	// Initialize database
	gormDB, err := database.NewPostgresConnection(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if autoMigrate {
		if err := db.Migrate(ctx, sqlDB, "up"); err != nil {
			return err
		}
	}

	// One provider client for the life of the process
	fcmClient, err := fcm.NewClient(ctx, cfg.FirebaseCredentials)
	if err != nil {
		return err
	}

	m := metrics.New()

	// Initialize repositories and use cases (dependency injection)
	devices := deviceRepo.NewDeviceRepository(gormDB)
	deviceUc := deviceUsecase.NewDeviceUsecase(devices)
	pushUc := pushUsecase.NewPushUsecase(devices, fcmClient, cfg, m)

	var authUc authUsecase.AuthUsecase
	if cfg.JWTSecret != "" {
		authUc = authUsecase.NewAuthUsecase(cfg.JWTSecret)
	}

	handler := api.NewHandler(deviceUc, pushUc, authUc, m, cfg)

	var consumer *notification.Service
	if cfg.EventBusEnabled {
		bus, err := eventbus.New(ctx, cfg.GoogleProjectID, cfg.GoogleCredentials)
		if err != nil {
			return err
		}
		defer bus.Close()

		deduper, closeDeduper := newDeduper(cfg)
		defer closeDeduper()

		consumer = notification.NewService(bus, cfg.PubSubTopic, cfg.PubSubGroupID, pushUc, deduper, m)
	} else {
		log.Info("Event bus disabled")
	}

	// the first component to fail stops the other
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return handler.Start(ctx, ":"+cfg.Port)
	})
	if consumer != nil {
		g.Go(func() error {
			return consumer.Start(ctx)
		})
	}

	return g.Wait()
}

// newDeduper shares dedup state through Redis when configured, otherwise keeps it in process
func newDeduper(cfg *config.Config) (notification.Deduper, func()) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		log.Infof("Deduplicating events through Redis at %s", cfg.RedisAddr)
		return notification.NewRedisDeduper(client, "push-relay:event:", cfg.EventDedupTTL), func() { _ = client.Close() }
	}
	d := notification.NewMemoryDeduper(cfg.EventDedupTTL)
	return d, d.Stop
}
