// Package cli holds the start-up steps shared by cmd/finboard,
// cmd/finboard-worker and cmd/finboard-seed.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finboard/internal/backend"
	"finboard/internal/config"
	applog "finboard/internal/log"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at the given LOG_LEVEL and makes it
// the slog default.
func SetupLogger(level string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: applog.ComponentApp,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and exits the process when it
// does not validate.
func LoadAndValidateConfig() (*config.Config, *applog.Logger) {
	cfg := config.Load()
	logger := SetupLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenStore creates the configured backend or exits the process.
func OpenStore(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", bcfg.Type)
		os.Exit(1)
	}
	return res
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
