package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pressroomhq/printdesk-backend/api/controllers"
	"github.com/pressroomhq/printdesk-backend/api/routes"
	"github.com/pressroomhq/printdesk-backend/internal/files"
	"github.com/pressroomhq/printdesk-backend/internal/inventory"
	"github.com/pressroomhq/printdesk-backend/internal/notifications"
	"github.com/pressroomhq/printdesk-backend/internal/orders"
	"github.com/pressroomhq/printdesk-backend/internal/users"
	"github.com/pressroomhq/printdesk-backend/internal/woocommerce"
	"github.com/pressroomhq/printdesk-backend/pkg/config"
	"github.com/pressroomhq/printdesk-backend/pkg/db"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
	"github.com/pressroomhq/printdesk-backend/pkg/metrics"
	"github.com/pressroomhq/printdesk-backend/pkg/migrate"
	"github.com/pressroomhq/printdesk-backend/pkg/outbox"
	"github.com/pressroomhq/printdesk-backend/pkg/redis"
	"github.com/pressroomhq/printdesk-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var gcsClient *gcs.Client
	if cfg.GCS.BucketName != "" {
		gcsClient, err = gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap storage", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "no storage bucket configured, file uploads disabled")
	}

	registry := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(registry)

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	notificationsSvc := notifications.NewService(notificationsRepo, usersRepo, logg, orderMetrics)
	inventorySvc := inventory.NewService(gormDB, dbClient, logg)
	filesSvc := files.NewService(gormDB, gcsClient, logg)

	ordersSvc := orders.NewService(orders.Deps{
		Repo:          orders.NewRepository(gormDB),
		Users:         usersRepo,
		Tx:            dbClient,
		Outbox:        outboxSvc,
		Notifier:      notificationsSvc,
		Cache:         redisClient,
		Inventory:     inventorySvc,
		Notifications: notificationsRepo,
		Config:        cfg.Orders,
		Logger:        logg,
		Metrics:       orderMetrics,
	})

	var wooSvc *woocommerce.Service
	if cfg.WooCommerce.BaseURL != "" {
		wooClient, err := woocommerce.NewClient(cfg.WooCommerce)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap woocommerce client", err)
			os.Exit(1)
		}
		wooSvc = woocommerce.NewService(wooClient, woocommerce.NewRepository(gormDB), dbClient, outboxSvc, notificationsSvc, logg)
	} else {
		logg.Warn(context.Background(), "no woocommerce store configured, imports disabled")
	}

	readiness := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}
	if gcsClient != nil {
		readiness["storage"] = gcsClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, readiness, registry,
			ordersSvc, wooSvc, notificationsSvc, filesSvc, inventorySvc,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
