package main

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/cli"
	applog "finboard/internal/log"
	"finboard/internal/mail"
	"finboard/internal/settings"
	"finboard/internal/sheets"
	gsheet "finboard/internal/sheets/google"
	"finboard/internal/worker"
)

// reloadingSettings re-reads the settings file on every access so toggles
// saved through the API apply without restarting the worker.
type reloadingSettings struct {
	store  *settings.Store
	logger *applog.Logger
}

func (r reloadingSettings) Get() settings.Settings {
	if err := r.store.Reload(); err != nil {
		r.logger.Warn("Using previous settings", applog.FieldError, err)
	}
	return r.store.Get()
}

// checkLedger reads the current ledger once so bad credentials or a missing
// sheet show up at startup instead of on the first event.
func checkLedger(ctx context.Context, ledger sheets.LedgerReader, logger *applog.Logger) {
	rows, err := ledger.Rows(ctx)
	if err != nil {
		logger.Warn("Cannot read Google Sheets ledger", applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeNetwork)
		return
	}
	logger.Info("Google Sheets ledger reachable", "rows", len(rows))
}

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()
	logger = logger.WithComponent(applog.ComponentWorker)
	logger.Info("Starting finboard-worker")

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

	store, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		logger.Error("Failed to load settings", applog.FieldError, err, "path", cfg.SettingsPath)
		os.Exit(1)
	}
	prefs := reloadingSettings{store: store, logger: logger}

	var exporter sheets.TransactionExporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		checkLedger(ctx, client, logger)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	var mailer mail.Mailer
	if cfg.MailEnabled() {
		mailer = mail.NewSender(mail.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}, logger)
		logger.Info("Mail notifications enabled", "smtp_host", cfg.SMTPHost)
	} else {
		logger.Info("Mail notifications disabled - no SMTP_HOST provided")
	}

	var wg sync.WaitGroup

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeNetwork)
			os.Exit(1)
		}
		defer client.Close()

		events := worker.NewEventWorker(exporter, mailer, backendRes.Store, prefs, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := client.Consume(ctx, events.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", applog.FieldError, err)
				stop()
			}
		}()
	} else {
		logger.Info("Skipping event consumption - no AMQP_URL provided")
	}

	reporter := worker.NewWeeklyReporter(backendRes.Store, mailer, prefs, logger)
	scheduler, err := worker.NewScheduler(cfg.WeeklyReportSchedule, func(ctx context.Context) {
		sent, err := reporter.SendAll(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Weekly report run failed", applog.FieldError, err)
			return
		}
		logger.InfoContext(ctx, "Weekly report run finished", "sent", sent)
	}, logger)
	if err != nil {
		logger.Error("Invalid weekly report schedule", applog.FieldError, err)
		os.Exit(1)
	}
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", applog.FieldError, err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Error("Scheduler shutdown error", applog.FieldError, err, applog.FieldOperation, applog.OpShutdown)
	}
	wg.Wait()
	logger.Info("Worker stopped gracefully")
}
