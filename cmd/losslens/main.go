package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"losslens/internal/amqp"
	"losslens/internal/categorize"
	"losslens/internal/config"
	"losslens/internal/export"
	apphttp "losslens/internal/http"
	"losslens/internal/insight"
	applog "losslens/internal/log"
	"losslens/internal/session"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Sessions with periodic expiry cleanup
	sessions := session.NewStore(cfg.MaxSessions, cfg.SessionTTL)
	manager := session.NewManager()
	manager.Register(sessions)
	manager.StartCleanup(10 * time.Minute)
	defer manager.Stop()

	// Remote services degrade to local fallbacks without an API key.
	var remoteLabeler categorize.Labeler
	var remoteInsight insight.Generator
	if cfg.AnthropicAPIKey != "" {
		remoteLabeler = categorize.NewClaude(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.RemoteTimeout)
		remoteInsight = insight.NewClaude(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.RemoteTimeout)
		logger.Info("Anthropic services enabled", "model", cfg.AnthropicModel)
	} else {
		logger.Info("No ANTHROPIC_API_KEY - using local categorizer and insight templates")
	}

	var publisher apphttp.ReportPublisher
	if cfg.MailEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("Report email queue enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Report email disabled - no AMQP_URL provided")
	}

	var sheets apphttp.SheetWriter
	if cfg.SheetsEnabled() {
		client, err := export.NewSheetsFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		sheets = client
		logger.Info("Sheets export enabled", "spreadsheet_id", cfg.SheetsSpreadsheetID)
	} else {
		logger.Info("Sheets export disabled - no SHEETS_SPREADSHEET_ID provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Sessions:       sessions,
		Categorizer:    categorize.NewService(remoteLabeler, categorize.NewKeyword()),
		Insights:       insight.NewService(remoteInsight),
		Publisher:      publisher,
		Sheets:         sheets,
		TopN:           cfg.TopN,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
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

	logger.Info("Starting losslens server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
