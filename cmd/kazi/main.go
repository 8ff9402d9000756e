// KaziAI orchestration server: routes career-assistant requests to reasoning
// agents, coordinates them over a message bus, and serves the HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kazi-ai/kazi/pkg/agent"
	"github.com/kazi-ai/kazi/pkg/api"
	"github.com/kazi-ai/kazi/pkg/config"
	"github.com/kazi-ai/kazi/pkg/database"
	"github.com/kazi-ai/kazi/pkg/llm"
	"github.com/kazi-ai/kazi/pkg/orchestrator"
	"github.com/kazi-ai/kazi/pkg/planner"
	"github.com/kazi-ai/kazi/pkg/router"
	"github.com/kazi-ai/kazi/pkg/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment", "error", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	slog.Info("Starting KaziAI",
		"http_port", cfg.HTTPPort,
		"llm_provider", cfg.LLM.Provider)

	ctx := context.Background()

	// Database
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	// Domain services
	traceService := services.NewTraceService(dbClient.DB())
	memoryService := services.NewMemoryService(dbClient.DB())
	goalService := services.NewGoalService(dbClient.DB())
	negotiationService := services.NewNegotiationService(dbClient.DB())
	userService := services.NewUserService(dbClient.DB())
	slog.Info("Services initialized")

	// LLM client
	llmClient, err := llm.NewOpenAIClient(cfg.LLM.Provider, cfg.LLM.Model)
	if err != nil {
		slog.Error("Failed to initialize LLM client", "provider", cfg.LLM.Provider, "error", err)
		os.Exit(1)
	}
	slog.Info("LLM client initialized", "provider", cfg.LLM.Provider, "model", llmClient.Model())

	// Orchestration core
	runner := agent.NewRunner(llmClient, cfg.Agent, traceService, logger)
	learner := agent.NewLearner(services.NewLearnerStore(traceService, memoryService), logger)
	orch := orchestrator.New(orchestrator.Options{
		LLM:            llmClient,
		Runner:         runner,
		Traces:         traceService,
		Facts:          memoryService,
		Negotiations:   negotiationService,
		Learner:        learner,
		Memory:         memoryService,
		TraceReader:    traceService,
		Resumes:        userService,
		MaxDelegations: cfg.Agent.MaxDelegations,
		Logger:         logger,
	})
	intentRouter := router.New(llmClient, logger)
	goalPlanner := planner.New(llmClient, orch, goalService, logger)

	// HTTP server
	server := api.NewServer(api.Deps{
		LLM:          llmClient,
		Router:       intentRouter,
		Orchestrator: orch,
		Planner:      goalPlanner,
		Traces:       traceService,
		Memories:     memoryService,
		Goals:        goalService,
		Negotiations: negotiationService,
		Users:        userService,
		DB:           dbClient.DB(),
		Logger:       logger,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
