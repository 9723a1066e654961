package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bilancio/internal/amqp"
	"bilancio/internal/analytics"
	"bilancio/internal/config"
	"bilancio/internal/log"
	"bilancio/internal/sheets"
	gsheet "bilancio/internal/sheets/google"
	"bilancio/internal/sheets/memory"
	"bilancio/internal/storage"
	"bilancio/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	logger.Info("Starting report worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Without a spreadsheet configured, exports land in an in-memory
	// writer so the worker still exercises the full pipeline locally.
	var writer sheets.ReportWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewClient(context.Background(), cfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = memory.NewWriter()
		logger.Info("Google Sheets disabled - exporting to in-memory writer")
	}

	engine := analytics.NewEngine(repo)
	reportWorker := worker.NewReportWorker(engine, writer, repo, cfg.ExportMonthsBack)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Startup pass so a fresh worker converges without waiting for events.
	if err := reportWorker.ExportAll(ctx); err != nil {
		logger.Error("Startup export failed", log.FieldError, err.Error())
	}

	// Consume ledger events when a broker is configured.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			err := amqpClient.ConsumeLedgerEvents(ctx, func(event *amqp.LedgerEvent) error {
				return reportWorker.HandleLedgerEvent(ctx, event)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Event consumption failed", log.FieldError, err.Error())
				cancel()
			}
		}()
	} else {
		logger.Info("AMQP disabled - relying on periodic export only")
	}

	go func() {
		if err := reportWorker.RunPeriodic(ctx, cfg.ExportInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Periodic export stopped", log.FieldError, err.Error())
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	time.Sleep(time.Second)
	logger.Info("Worker shutdown complete")
}
