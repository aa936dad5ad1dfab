package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"wealth/internal/amqp"
	"wealth/internal/cli"
	"wealth/internal/config"
	"wealth/internal/log"
	"wealth/internal/storage"
	"wealth/internal/worker"
)

const statsInterval = time.Minute

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentWorker, nil)
	logger.Info("Starting wealth-worker")

	if err := cfg.ValidateWorker(); err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize SQLite repository", err, "path", cfg.SQLiteDBPath)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer client.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	audit := worker.NewAuditWorker(repo, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeRecordEvents(gctx, cfg.AuditBatchSize, audit.HandleRecordEvent)
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				st := audit.Stats()
				logger.Info("Audit worker stats", "processed", st.Processed, "duplicates", st.Duplicates)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		cli.Fatal(logger, "Message consumption failed", err)
	}
	st := audit.Stats()
	logger.Info("Worker stopped gracefully", "processed", st.Processed, "duplicates", st.Duplicates)
}
