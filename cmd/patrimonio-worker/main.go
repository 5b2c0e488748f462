package main

import (
	"context"
	"errors"
	"os"
	"time"

	"patrimonio/internal/amqp"
	"patrimonio/internal/backend"
	"patrimonio/internal/cli"
	"patrimonio/internal/config"
	"patrimonio/internal/log"
	"patrimonio/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)
	logger.Info("Starting patrimonio-worker")

	// DATA_BACKEND is irrelevant here; only the mirror settings are checked
	cfg := config.Load()
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Mirror configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	remoteCfg, err := backend.MirrorFromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid mirror source", log.FieldError, err)
		os.Exit(1)
	}
	remote, err := backend.NewFactory(logger).CreateBackend(context.Background(), remoteCfg)
	if err != nil {
		logger.Error("Failed to initialize mirror source", log.FieldError, err, log.FieldBackend, cfg.MirrorSource)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	amqpClient := cli.InitAMQP(logger, cfg)

	var publisher worker.Publisher
	if amqpClient != nil {
		publisher = amqpClient
	}
	mirror := worker.NewMirrorWorker(remote.Backend, repo, publisher, amqp.OriginMirror, logger).
		WithPrune(cfg.MirrorPrune)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if last, ok, err := repo.LastMirrorRun(ctx); err == nil && ok {
		logger.Info("Resuming mirror",
			"last_run", last.FinishedAt.Format(time.RFC3339), "last_changed", last.Changed, "last_removed", last.Removed)
	}

	if err := mirror.Run(ctx, cfg.MirrorInterval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Mirror worker failed", log.FieldError, err)
	}

	cli.WaitForShutdown(ctx, done)
	if amqpClient != nil {
		_ = amqpClient.Close()
	}
	_ = remote.Close()
	_ = repo.Close()
	logger.Info("Worker shutdown complete")
}
