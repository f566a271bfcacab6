package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/auth"
	"finboard/internal/cache"
	"finboard/internal/cli"
	apphttp "finboard/internal/http"
	applog "finboard/internal/log"
	"finboard/internal/services"
	"finboard/internal/settings"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	ctx, stop := cli.SignalContext()
	defer stop()

	backendRes := cli.OpenStore(ctx, logger, cfg)
	defer func() {
		if backendRes.Cleanup != nil {
			if err := backendRes.Cleanup(); err != nil {
				logger.Error("Failed to close store", applog.FieldError, err)
			}
		}
	}()
	st := backendRes.Store

	prefs, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		logger.Error("Failed to load settings", applog.FieldError, err, "path", cfg.SettingsPath)
		os.Exit(1)
	}

	// Events are optional: without a broker the API still works, nothing is
	// exported or mailed.
	var publisher amqp.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeNetwork)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	reportCache := cache.NewLRUCache[any](500, cfg.ReportCacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(reportCache)
	go cacheManager.Run(ctx, 10*time.Minute)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	reports := services.NewReportService(st, reportCache, logger)
	goals := services.NewGoalService(st, publisher, logger)
	habits := services.NewHabitService(st, publisher, logger)

	svc := apphttp.Services{
		Auth:         services.NewAuthService(st, tokens, logger),
		Transactions: services.NewTransactionService(st, publisher, reports, logger),
		Goals:        goals,
		Habits:       habits,
		Profiles:     services.NewProfileService(st, logger),
		Reports:      reports,
		Dashboard:    services.NewDashboardService(st, goals, habits, logger),
		Settings:     prefs,
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, tokens, st, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	}, logger)

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err, applog.FieldOperation, applog.OpShutdown)
		}
	}()

	logger.Info("Starting finboard server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	<-drained
	logger.Info("Server stopped gracefully")
}
