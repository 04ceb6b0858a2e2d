package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"horizon/internal/amqp"
	"horizon/internal/auth"
	"horizon/internal/config"
	apphttp "horizon/internal/http"
	applog "horizon/internal/log"
	"horizon/internal/notify"
	"horizon/internal/notify/memory"
	"horizon/internal/notify/textlocal"
	"horizon/internal/services"
	"horizon/internal/storage"
)

func main() {
	// Load .env for local development; production sets real env vars.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.New(applog.ComponentApp, applog.ParseLevel(cfg.LogLevel))
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

	// The broker is optional for the API: without it contributions are
	// still recorded, only confirmations go unsent.
	var publisher services.IntentPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to broker, notifications disabled", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	gateway := textlocal.New(cfg.TextLocalAPIKey, cfg.TextLocalAPIURL, cfg.TextLocalSender)
	var transport notify.Transport = gateway
	smsReady := gateway.Configured()
	switch {
	case cfg.SMSTransport == "memory":
		logger.Warn("Using in-memory SMS transport, messages are not actually delivered")
		transport = memory.New()
		smsReady = true
	case !gateway.Configured():
		logger.Warn("TextLocal API key not set, SMS deliveries will fail and be logged as failed")
	}
	notifier := notify.NewNotifier(transport, repo)

	ledger := services.NewContributionService(repo, repo, publisher, loc)
	group := services.NewGroupService(repo, loc)
	messages := services.NewMessageService(repo, publisher)

	resolver := auth.ParseTokenMap(cfg.AuthTokens)
	if resolver.Empty() {
		logger.Warn("No auth tokens configured, every API request will be rejected")
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:          ":" + cfg.Port,
		Resolver:      resolver,
		SMSConfigured: smsReady,
		Location:      loc,
	}, ledger, group, messages, repo, notifier)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting horizon API", "port", cfg.Port, "timezone", cfg.Timezone)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
