package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"patrimonio/internal/backend"
	"patrimonio/internal/cache"
	"patrimonio/internal/cli"
	apphttp "patrimonio/internal/http"
	"patrimonio/internal/log"
	"patrimonio/internal/middleware/ratelimit"
	"patrimonio/internal/services"
	"patrimonio/internal/worker"
)

const selectionTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cli.ConfigureJSON()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	cacheManager := cache.NewManager(logger)
	if res.Cache != nil {
		cacheManager.Register(res.Cache.Cleaner())
	}
	var limiter *ratelimit.Limiter
	if cfg.SelectionRateLimit > 0 {
		limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerWindow: cfg.SelectionRateLimit, Window: time.Minute})
		cacheManager.Register(limiter.Cleaner())
	}
	if err := cacheManager.Start(cfg.CacheCleanupSchedule); err != nil {
		logger.Error("Failed to schedule cache cleanup", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient := cli.InitAMQP(logger, cfg)

	var srv *apphttp.Server
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if srv != nil {
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Server shutdown error", log.FieldError, err)
			}
		}
		cacheManager.Stop()
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	if amqpClient != nil && res.Cache != nil {
		go func() {
			err := amqpClient.ConsumeDocumentChanged(ctx, worker.EvictOnChange(res.Cache, logger))
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Document change consumer stopped", log.FieldError, err)
			}
		}()
	}

	months := services.NewMonthService(res.Source, logger)
	srv = apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Months:             months,
		Forecasts:          services.NewForecastService(res.Source, logger),
		Selector:           services.NewSelector(ctx, months, selectionTimeout, logger),
		SelectLimiter:      limiter,
		Backend:            res.Type.String(),
		Ready:              apphttp.ReadyFunc(res.Ready),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	logger.Info("Starting patrimonio server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
