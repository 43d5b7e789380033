// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/justinj8/fintech-copilot/internal/agent"
	"github.com/justinj8/fintech-copilot/internal/analysis"
	"github.com/justinj8/fintech-copilot/internal/config"
	"github.com/justinj8/fintech-copilot/internal/dataset"
	"github.com/justinj8/fintech-copilot/internal/glossary"
	"github.com/justinj8/fintech-copilot/internal/handler"
	"github.com/justinj8/fintech-copilot/internal/insight"
	"github.com/justinj8/fintech-copilot/internal/llm"
	"github.com/justinj8/fintech-copilot/internal/middleware"
	natsclient "github.com/justinj8/fintech-copilot/internal/nats"
	"github.com/justinj8/fintech-copilot/internal/session"
	"github.com/justinj8/fintech-copilot/internal/viz"
	"github.com/justinj8/fintech-copilot/pkg/logger"
	"github.com/justinj8/fintech-copilot/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "fintech-copilot", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Load the dataset. The whole service answers questions about this
	// table, so failing to load it is fatal.
	ds, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		log.Error("failed to load dataset", zap.String("path", cfg.DatasetPath), zap.Error(err))
		os.Exit(1)
	}
	first, last := ds.DateRange()
	log.Info("dataset loaded",
		zap.String("path", cfg.DatasetPath),
		zap.Int("rows", ds.Len()),
		zap.Time("first_signup", first),
		zap.Time("last_signup", last),
	)

	// Connect to NATS when configured; turns are mirrored to JetStream.
	var natsConn *natsclient.Client
	var streamManager *natsclient.StreamManager
	if cfg.NATSURL != "" {
		natsConn, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsConn.Close()

		streamManager = natsclient.NewStreamManager(natsConn)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure stream", zap.Error(err))
			os.Exit(1)
		}
	}

	// Initialize LLM client. Without one every LLM-backed component
	// degrades to its deterministic fallback.
	var llmClient llm.Client
	switch {
	case cfg.DefaultLLM == "anthropic" && cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	case cfg.OpenAIAPIKey != "":
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	case cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	}
	if err != nil {
		log.Warn("failed to create LLM client, LLM features disabled", zap.Error(err))
		llmClient = nil
	}
	if llmClient == nil {
		log.Info("no LLM configured, running with deterministic fallbacks only")
	}

	// The glossary index needs an embeddings API; only the OpenAI client
	// provides one. Resolved before the timeout wrapper hides it.
	var embedder llm.Embedder
	if e, ok := llmClient.(llm.Embedder); ok {
		embedder = e
	}

	llmClient = llm.WithTimeout(llmClient, cfg.LLMTimeout)

	gl, err := glossary.Load(cfg.GlossaryPath, embedder, log)
	if err != nil {
		log.Error("failed to load glossary", zap.String("path", cfg.GlossaryPath), zap.Error(err))
		os.Exit(1)
	}

	// Initialize services
	engine := analysis.NewEngine(ds, log)
	planner := analysis.NewPlanner(llmClient, log)
	artifacts := viz.NewArtifactStore(cfg.ChartPath)
	selector := viz.NewSelector(ds, artifacts, log)
	insights := insight.NewGenerator(llmClient, log)
	store := session.NewStore(streamManager, log)
	orchestrator := agent.New(llmClient, planner, engine, selector, insights, gl, store, log,
		agent.WithMemoryWindow(cfg.MemoryWindow),
		agent.WithMaxSteps(cfg.AgentMaxSteps),
	)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(ds, natsConn)
	askHandler := handler.NewAskHandler(orchestrator, store, log)
	streamHandler := handler.NewStreamHandler(engine, insights, store, log)
	chartHandler := handler.NewChartHandler(artifacts)
	glossaryHandler := handler.NewGlossaryHandler(gl)
	sessionHandler := handler.NewSessionHandler(store, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(middleware.Auth(cfg.JWTSecret))
		}
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/ask", askHandler.Ask)
		r.Get("/ask/stream", streamHandler.Stream)
		r.Get("/chart", chartHandler.Chart)
		r.Get("/glossary", glossaryHandler.Lookup)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/turns", sessionHandler.ListTurns)
			r.Delete("/turns", sessionHandler.ClearTurns)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
