package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/VariableVic/medusa-ai-assistant/internal/auth"
	"github.com/VariableVic/medusa-ai-assistant/internal/completion"
	"github.com/VariableVic/medusa-ai-assistant/internal/config"
	"github.com/VariableVic/medusa-ai-assistant/internal/medusa"
	openaiprovider "github.com/VariableVic/medusa-ai-assistant/internal/provider/openai"
	"github.com/VariableVic/medusa-ai-assistant/internal/server"
	"github.com/VariableVic/medusa-ai-assistant/internal/telemetry"
	"github.com/VariableVic/medusa-ai-assistant/internal/tokens"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize OpenTelemetry
	shutdown, err := telemetry.InitTracer("return-assistant", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	// Completion gateway: provider, token budgeter, system prompt assembly
	var providerOpts []openaiprovider.ProviderOption
	if cfg.OpenAI.BaseURL != "" {
		providerOpts = append(providerOpts, openaiprovider.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	provider := openaiprovider.New(cfg.OpenAI.APIKey, providerOpts...)

	counter := tokens.NewCounter(cfg.OpenAI.Model)
	budgeter := tokens.NewBudgeter(counter, cfg.Tokens.Budget, logger)
	completions := completion.NewService(provider, budgeter, cfg.OpenAI.Model, logger)

	var authenticator *auth.Authenticator
	if len(cfg.Auth.APIKeyHashes) > 0 {
		authenticator = auth.NewAuthenticator(cfg.Auth.APIKeyHashes)
	} else {
		logger.Warn("no API key hashes configured, authentication disabled")
	}

	srv := server.New(cfg.Server.Port, logger, authenticator)

	handler := server.NewCompletionHandler(completions, logger)
	srv.Router.Post("/admin/completion/order-returns", handler.HandleOrderReturns)

	// Reference data the admin widget grounds conversations in
	medusaClient := medusa.NewClient(cfg.Medusa.BaseURL, cfg.Medusa.APIToken)
	refData := server.NewReferenceDataHandler(medusaClient, logger)
	srv.Router.Get("/admin/assistant/return-reasons", refData.HandleReturnReasons)
	srv.Router.Get("/admin/assistant/shipping-options", refData.HandleShippingOptions)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server failed: %v", err)
	case <-sigChan:
	}

	logger.Info("shutdown signal received, stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}
