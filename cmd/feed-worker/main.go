package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/pressroomhq/printdesk-backend/internal/feed"
	"github.com/pressroomhq/printdesk-backend/internal/orders"
	"github.com/pressroomhq/printdesk-backend/pkg/config"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
	"github.com/pressroomhq/printdesk-backend/pkg/metrics"
	"github.com/pressroomhq/printdesk-backend/pkg/pubsub"
	"github.com/pressroomhq/printdesk-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "feed-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "feed-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	invalidator := orders.NewListCacheInvalidator(redisClient, logg)
	consumer := feed.NewConsumer(
		pubsubClient.OrdersSubscription(),
		invalidator,
		cfg.Feed,
		logg,
		metrics.NewOrderMetrics(nil),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting change feed worker")

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "change feed worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "change feed worker shutting down gracefully")
}
