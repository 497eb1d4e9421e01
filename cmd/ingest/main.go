package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/flowzz-ingest/internal/catalog"
	"github.com/angelmondragon/flowzz-ingest/internal/ingest"
	"github.com/angelmondragon/flowzz-ingest/internal/vendors"
	"github.com/angelmondragon/flowzz-ingest/pkg/config"
	"github.com/angelmondragon/flowzz-ingest/pkg/db"
	"github.com/angelmondragon/flowzz-ingest/pkg/flowzz"
	"github.com/angelmondragon/flowzz-ingest/pkg/instance"
	"github.com/angelmondragon/flowzz-ingest/pkg/logger"
	"github.com/angelmondragon/flowzz-ingest/pkg/metrics"
	"github.com/angelmondragon/flowzz-ingest/pkg/migrate"
	"github.com/angelmondragon/flowzz-ingest/pkg/redis"
)

const serviceName = "flowzz-ingest"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() (err error) {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if loadErr := godotenv.Load(); loadErr != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		return err
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
	})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		return err
	}
	defer func() {
		err = multierr.Append(err, closeResource(ctx, logg, "database", dbClient.Close))
	}()

	if err := migrate.Bootstrap(ctx, dbClient, logg); err != nil {
		logg.Error(ctx, "failed to bootstrap schema", err)
		return err
	}

	var lock ingest.Lock = ingest.NoopLock{}
	if cfg.Redis.Enabled() {
		redisClient, redisErr := redis.New(ctx, cfg.Redis)
		if redisErr != nil {
			logg.Error(ctx, "failed to bootstrap redis", redisErr)
			return redisErr
		}
		defer func() {
			err = multierr.Append(err, closeResource(ctx, logg, "redis", redisClient.Close))
		}()
		redisLock, lockErr := ingest.NewRedisLock(redisClient, redisClient.LockKey(cfg.App.Env), cfg.Redis.LockTTL)
		if lockErr != nil {
			logg.Error(ctx, "failed to create ingest lock", lockErr)
			return lockErr
		}
		lock = redisLock
	} else {
		logg.Info(ctx, "redis not configured; running without a run lock")
	}

	registry := prometheus.NewRegistry()
	ingestMetrics := metrics.NewIngestMetrics(registry)
	if cfg.Metrics.Addr != "" {
		serveCtx, cancelServe := context.WithCancel(ctx)
		defer cancelServe()
		go func() {
			if serveErr := metrics.Serve(serveCtx, cfg.Metrics.Addr, metrics.NewHandler(registry)); serveErr != nil {
				logg.Error(ctx, "metrics server stopped", serveErr)
			}
		}()
		logg.Info(logg.WithField(ctx, "addr", cfg.Metrics.Addr), "metrics endpoint listening")
	}

	opts := []flowzz.Option{
		flowzz.WithBaseURL(cfg.API.BaseURL),
		flowzz.WithUserAgent(cfg.API.UserAgent),
		flowzz.WithTimeout(cfg.API.Timeout),
	}
	if len(cfg.API.SessionCookies) > 0 {
		opts = append(opts, flowzz.WithCredentials(flowzz.SessionCookies(cfg.API.SessionCookies)))
	} else {
		logg.Warn(ctx, "no session cookies configured; vendor requests are anonymous")
	}
	api := flowzz.NewClient(opts...)

	service, err := ingest.NewService(ingest.ServiceParams{
		Logger:       logg,
		Catalog:      api,
		Vendors:      api,
		CatalogStore: catalog.NewRepository(dbClient.DB()),
		VendorStore:  vendors.NewRepository(dbClient.DB()),
		Config:       cfg.Ingest,
		Metrics:      ingestMetrics,
		Lock:         lock,
	})
	if err != nil {
		logg.Error(ctx, "failed to create ingest service", err)
		return err
	}

	summary, err := service.Run(ctx)
	if err != nil {
		if ingest.IsCanceled(err) {
			logg.Warn(ctx, "ingest run interrupted")
		} else {
			logg.Error(ctx, "ingest run failed", err)
		}
		return err
	}
	if summary.Skipped {
		return nil
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"run_id":      summary.RunID,
		"duration_ms": summary.Duration.Milliseconds(),
	}), "ingest finished")
	return nil
}

func closeResource(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) error {
	if err := closeFn(); err != nil {
		logg.Error(ctx, fmt.Sprintf("error closing %s", name), err)
		return err
	}
	return nil
}
