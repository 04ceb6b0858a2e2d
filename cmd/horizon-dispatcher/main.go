package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"horizon/internal/amqp"
	"horizon/internal/config"
	"horizon/internal/export"
	exportgoogle "horizon/internal/export/google"
	applog "horizon/internal/log"
	"horizon/internal/notify"
	"horizon/internal/notify/memory"
	"horizon/internal/notify/textlocal"
	"horizon/internal/services"
	"horizon/internal/storage"
	"horizon/internal/worker"
)

func main() {
	// Load .env for local development; production sets real env vars.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.New(applog.ComponentDispatcher, applog.ParseLevel(cfg.LogLevel))
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	loc := cfg.Location()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to broker", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	gateway := textlocal.New(cfg.TextLocalAPIKey, cfg.TextLocalAPIURL, cfg.TextLocalSender)
	var transport notify.Transport = gateway
	switch {
	case cfg.SMSTransport == "memory":
		logger.Warn("Using in-memory SMS transport, messages are not actually delivered")
		transport = memory.New()
	case !gateway.Configured():
		logger.Warn("TextLocal API key not set, SMS deliveries will fail and be logged as failed")
	}
	notifier := notify.NewNotifier(transport, repo)

	throttle := services.NewReminderThrottle(repo)
	dispatch := worker.NewDispatchWorker(repo, notifier, throttle, loc)
	sweep := worker.NewReminderSweep(repo, repo, dispatch, cfg.ReminderBatch, loc)

	// Ledger mirror is optional; the backlog waits in storage until a
	// spreadsheet is configured.
	var mirrorWriter export.LedgerWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := exportgoogle.New(context.Background(), exportgoogle.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			OAuthClientJSON: cfg.GoogleOAuthClientJSON,
			OAuthClientFile: cfg.GoogleOAuthClientFile,
			OAuthTokenJSON:  cfg.GoogleOAuthTokenJSON,
			OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
		})
		if err != nil {
			logger.Error("Failed to initialize spreadsheet mirror", "error", err)
			os.Exit(1)
		}
		if err := client.EnsureHeader(context.Background()); err != nil {
			logger.Error("Failed to prepare spreadsheet", "error", err)
			os.Exit(1)
		}
		mirrorWriter = client
		logger.Info("Ledger mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Ledger mirror disabled, no GOOGLE_SPREADSHEET_ID provided")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Consuming notification intents", "queue", cfg.AMQPQueue)
		return amqpClient.ConsumeIntents(ctx, dispatch.HandleIntent)
	})

	g.Go(func() error {
		logger.Info("Starting reminder sweep", "interval", cfg.ReminderInterval.String())
		return sweep.RunLoop(ctx, cfg.ReminderInterval)
	})

	if mirrorWriter != nil {
		mirror := worker.NewMirrorWorker(repo, mirrorWriter, cfg.ReminderBatch)
		g.Go(func() error {
			return mirror.RunLoop(ctx, 5*time.Minute)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Dispatcher stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Dispatcher stopped gracefully")
}
