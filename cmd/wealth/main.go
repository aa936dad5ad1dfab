package main

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"wealth/internal/advisor"
	"wealth/internal/amqp"
	"wealth/internal/auth"
	"wealth/internal/backend"
	"wealth/internal/cli"
	"wealth/internal/config"
	apphttp "wealth/internal/http"
	"wealth/internal/log"
	"wealth/internal/ports"
	"wealth/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentApp, nil)

	if err := cfg.Validate(); err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	b, err := backend.New(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize data backend", err, "backend", cfg.DataBackend)
	}
	defer b.Close()

	var events ports.EventPublisher = amqp.NopPublisher{}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			cli.Fatal(logger, "Failed to initialize AMQP client", err)
		}
		defer client.Close()
		events = client
	} else {
		logger.Info("Record events disabled - no AMQP_URL provided")
	}

	model := cli.NewModel(ctx, cfg, logger)
	pipeline := advisor.NewPipeline(b.Reader, advisor.NewInferenceClient(model, cfg.InferenceConfig()))

	deps := apphttp.Deps{
		Pipeline:           pipeline,
		Ready:              b.Ping,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	}
	if b.Writable() {
		issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
		deps.Issuer = issuer
		deps.Records = services.NewRecordService(b.Records, events, logger)
		deps.Users = services.NewUserService(b.Users, issuer, logger)
	} else {
		logger.Info("Read-only backend - record and user routes disabled", "backend", b.Type)
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting wealth server", log.FieldOperation, log.OpStartup, "port", cfg.Port, "backend", b.Type, "model", cfg.GenAIModel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := cli.ShutdownContext()
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}
	logger.Info("Server stopped gracefully")
}
