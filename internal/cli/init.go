// Package cli holds the start-up steps shared by cmd/wealth,
// cmd/wealth-worker and cmd/wealthctl.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wealth/internal/advisor"
	"wealth/internal/config"
	"wealth/internal/log"
)

// ShutdownTimeout bounds how long a binary waits for in-flight work after
// a termination signal.
const ShutdownTimeout = 30 * time.Second

// LoadEnvFile loads a .env file for local development. A missing file is
// not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default. A nil out means stdout.
func SetupLogger(cfg *config.Config, component string, out io.Writer) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// Fatal logs err and exits with status 1.
func Fatal(logger *log.Logger, msg string, err error, args ...any) {
	logger.Error(msg, append([]any{log.FieldError, err}, args...)...)
	os.Exit(1)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// ShutdownContext is a fresh context bounded by ShutdownTimeout, used once
// the signal context is already done.
func ShutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), ShutdownTimeout)
}

// NewModel builds the generative model for the server. Without usable
// credentials it returns nil and the pipeline serves fallback
// recommendations.
func NewModel(ctx context.Context, cfg *config.Config, logger *log.Logger) advisor.Model {
	model, err := advisor.NewGeminiModel(ctx, cfg.GeminiConfig())
	if err != nil {
		logger.Warn("Generative model unavailable, serving fallback recommendations",
			log.FieldError, err.Error(),
			"backend", cfg.GenAIBackend,
		)
		return nil
	}
	return model
}
