// Package server provides the public entry point for initializing the
// BuildQuote quote engine.
//
// This package exists in pkg/ (not internal/) so that deployment targets —
// the long-running HTTP service and the serverless function wrapper — can
// compose the same orchestration core rather than maintaining duplicate
// copies of the pipeline.
//
// Usage:
//
//	srv, err := server.New(ctx)
//	http.ListenAndServe(":8080", srv.Handler)
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/buildquote/buildquote/internal/api"
	"github.com/buildquote/buildquote/internal/api/handlers"
	"github.com/buildquote/buildquote/internal/config"
	"github.com/buildquote/buildquote/internal/orchestrator"
	"github.com/buildquote/buildquote/internal/pricing"
	"github.com/buildquote/buildquote/internal/provider"
	"github.com/buildquote/buildquote/internal/telemetry"
)

// Server holds the initialized quote engine.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Orchestrator is the analysis pipeline, exposed so thin transport
	// adapters (e.g. a serverless function) can call it directly.
	Orchestrator *orchestrator.Orchestrator

	// Config is the loaded configuration.
	Config *config.Config

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc should be called on graceful shutdown to flush
	// telemetry and close the pricing source.
	ShutdownFunc func(context.Context) error
}

// New initializes all components from the environment and returns a ready
// Server. All services are explicitly constructed and injected; there is
// no hidden global state.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the quote engine with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	shutdownTelemetry, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	// Pricing reference data: PostgreSQL when configured, embedded static
	// tables otherwise (zero-config default).
	var src pricing.RateSource
	var closeSource func()
	if cfg.Database.URL != "" {
		pgSrc, err := pricing.NewPostgresSource(ctx, cfg.Database.URL, cfg.Database.MaxConnections)
		if err != nil {
			return nil, fmt.Errorf("init pricing source: %w", err)
		}
		src = pgSrc
		closeSource = pgSrc.Close
	} else {
		src = pricing.NewStaticSource()
		log.Info().Msg("Static pricing reference tables initialized")
	}

	eng, err := pricing.NewEngine(src, pricing.Options{
		CacheTTL:              cfg.Pricing.CacheTTL,
		AllowEstimateFallback: cfg.Pricing.AllowEstimateFallback,
		HighDemandRules:       cfg.Pricing.HighDemandRules,
	})
	if err != nil {
		return nil, fmt.Errorf("init pricing engine: %w", err)
	}
	log.Info().Msg("Pricing engine initialized")

	orch := orchestrator.New(orchestrator.Config{
		Primary:        cfg.Orchestrator.Primary,
		FallbackOrder:  cfg.Orchestrator.FallbackOrder,
		Vision:         cfg.Orchestrator.Vision,
		Conversational: cfg.Orchestrator.Conversational,
		Timeout:        cfg.Orchestrator.Timeout,
		AllowFallback:  cfg.Orchestrator.AllowFallback,
	}, eng)

	orch.Register(provider.NewOpenAI(cfg.Providers.OpenAI))
	orch.Register(provider.NewAnthropic(cfg.Providers.Anthropic))
	orch.Register(provider.NewOllama(cfg.Providers.Ollama))
	log.Info().
		Str("primary", cfg.Orchestrator.Primary).
		Strs("fallback", cfg.Orchestrator.FallbackOrder).
		Msg("Analysis orchestrator initialized")

	h := handlers.New(orch, eng)
	router := api.NewRouter(cfg, h)

	shutdown := func(ctx context.Context) error {
		if closeSource != nil {
			closeSource()
		}
		return shutdownTelemetry(ctx)
	}

	return &Server{
		Handler:      router,
		Orchestrator: orch,
		Config:       cfg,
		Port:         cfg.Port,
		ShutdownFunc: shutdown,
	}, nil
}
