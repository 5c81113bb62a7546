package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/skypro1111/voice-gateway/internal/call"
	"github.com/skypro1111/voice-gateway/internal/config"
	"github.com/skypro1111/voice-gateway/internal/logging"
	"github.com/skypro1111/voice-gateway/internal/metrics"
	"github.com/skypro1111/voice-gateway/internal/server"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "voice-gateway"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	envFile := flag.String("env-file", ".env", "Optional dotenv file with Twilio credentials")
	flag.Parse()

	// Load .env before the config so its variables are visible to ApplyEnv
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load env file %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := logging.New(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	if err := cfg.Telephony.Validate(); err != nil {
		logger.Error("Telephony configuration incomplete", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.String("http_address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
		slog.String("from_number", cfg.Telephony.FromNumber),
		slog.Bool("escape_message", cfg.Call.EscapeMessage),
		slog.String("assistant_endpoint", cfg.Assistant.Endpoint),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics(prometheus.DefaultRegisterer)
	logger.Info("Prometheus metrics initialized")

	dialer, err := call.NewTwilioDialer(call.TwilioConfig{
		AccountSID: cfg.Telephony.AccountSID,
		AuthToken:  cfg.Telephony.AuthToken,
	})
	if err != nil {
		logger.Error("Failed to create Twilio dialer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	callService, err := call.NewService(dialer, call.ServiceConfig{
		FromNumber:    cfg.Telephony.FromNumber,
		EscapeMessage: cfg.Call.EscapeMessage,
	}, logger, appMetrics)
	if err != nil {
		logger.Error("Failed to create call service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Call service initialized")

	if !cfg.HTTP.Enabled {
		logger.Error("HTTP server is disabled, nothing to serve")
		os.Exit(1)
	}

	httpServer := server.NewHTTPServer(server.HTTPServerConfig{
		Port:    cfg.HTTP.Port,
		Address: cfg.HTTP.Address,
	}, logger, cfg, callService, appMetrics, prometheus.DefaultGatherer)

	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("http_address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
	)

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	logger.Info("Service stopped")
}
