package main

import (
	"context"
	"os"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/log"
	"expenses/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	logger.Info("Starting expenses-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.CacheBackend != string(backend.RedisCache) {
		logger.Warn("Summary cache is not shared with the API; warm-ups only help this process",
			"cache", cfg.CacheBackend)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	// The worker consumes instead of publishing.
	backendCfg.AMQPURL = ""

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer bootCancel()

	be, err := backend.NewFactory(logger).CreateBackend(bootCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer be.Close()

	client, err := amqp.DialWithRetry(bootCtx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 8, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		be.Close()
		os.Exit(1)
	}
	defer client.Close()

	warmer := worker.NewSummaryWarmer(be.Summary, logger)
	processor := worker.NewProcessor(client, warmer.HandleLedgerEvent,
		worker.ProcessorConfig{Concurrency: cfg.WorkerConcurrency}, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := processor.Stop(shutdownCtx); err != nil {
			logger.Error("Processor stop error", log.FieldError, err.Error())
		}
	})

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start processor", log.FieldError, err.Error())
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
		cli.WaitForShutdown(ctx, done)
	case <-processor.Done():
		if err := processor.Err(); err != nil {
			logger.Error("Event processing stopped", log.FieldError, err.Error())
			client.Close()
			be.Close()
			os.Exit(1)
		}
		if ctx.Err() != nil {
			cli.WaitForShutdown(ctx, done)
		}
	}

	logger.Info("Worker stopped gracefully")
}
