package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/outreach/internal"
	"github.com/DukeRupert/outreach/internal/ai"
	"github.com/DukeRupert/outreach/internal/ai/anthropic"
	"github.com/DukeRupert/outreach/internal/ai/gemini"
	"github.com/DukeRupert/outreach/internal/ai/mock"
	"github.com/DukeRupert/outreach/internal/email"
	"github.com/DukeRupert/outreach/internal/handler"
	"github.com/DukeRupert/outreach/internal/identity"
	"github.com/DukeRupert/outreach/internal/metrics"
	"github.com/DukeRupert/outreach/internal/middleware"
	"github.com/DukeRupert/outreach/internal/outreach"
	"github.com/DukeRupert/outreach/internal/service"
	"github.com/DukeRupert/outreach/internal/session"
	"github.com/DukeRupert/outreach/web"
)

// sweepInterval is how often expired in-memory sessions are dropped.
const sweepInterval = 10 * time.Minute

func run() error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger, flush, err := internal.NewLoggerWithSentry(os.Stdout, cfg.Env, cfg.LogLevel, cfg.SentryDSN)
	if err != nil {
		logger.Warn("Sentry disabled", "error", err)
	}
	defer flush()

	// Initialize session store
	store, healthcheck, closeStore, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Initialize AI provider
	drafter, err := newDrafter(cfg, logger)
	if err != nil {
		return fmt.Errorf("AI provider initialization failed: %w", err)
	}

	// Initialize SMTP mailer
	mailer := email.NewSMTPMailer(email.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
	}, cfg.SMTPTimeout, logger)

	// Initialize template renderer
	renderer, err := handler.NewRendererFromFS(web.Templates(), logger, false)
	if err != nil {
		return fmt.Errorf("renderer initialization failed: %w", err)
	}

	// Initialize services
	event := outreach.DefaultEvent()
	authService := service.NewAuthService(identity.NewDecoder(cfg.GoogleClientID), store, cfg.SessionTTL, logger)
	outreachService := service.NewOutreachService(event, drafter, mailer, logger)

	// Initialize middleware
	isSecure := !cfg.IsDevelopment()
	authMw := middleware.NewAuthMiddleware(authService, logger, isSecure)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsAuth := middleware.MetricsAuth(cfg.MetricsUsername, cfg.MetricsPassword)
	if cfg.MetricsUsername == "" && cfg.MetricsPassword == "" {
		logger.Warn("Metrics endpoint is unprotected; set METRICS_USERNAME and METRICS_PASSWORD")
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, renderer, logger, event, handler.AuthConfig{
		GoogleClientID: cfg.GoogleClientID,
		BaseURL:        cfg.BaseURL,
		SessionTTL:     cfg.SessionTTL,
		IsSecure:       isSecure,
	})
	dashboardHandler := handler.NewDashboardHandler(outreachService, renderer, logger, event, isSecure)
	apiHandler := handler.NewAPIHandler(authService, outreachService, logger, cfg.SessionTTL, isSecure)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(web.Static())))

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := healthcheck(r.Context()); err != nil {
			logger.Error("Health check failed", "error", err)
			http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", metricsAuth(promhttp.Handler()))

	// WithUser runs globally, so RequireUser alone guards protected routes
	authHandler.RegisterRoutes(mux)
	dashboardHandler.RegisterRoutes(mux, authMw.RequireUser)
	apiHandler.RegisterRoutes(mux, authMw.RequireUser)

	// metrics.Middleware must wrap the mux directly to see the matched pattern
	chain := middleware.Stack(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.CORS(cfg.AllowedOrigins),
		securityMw.Handler,
		loggingMw.Handler,
		authMw.WithUser,
		metrics.Middleware,
	)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           chain(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "ai_provider", cfg.AIProvider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Stop background work such as the session sweeper
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newSessionStore opens the configured store and returns a health probe
// and a close function for it.
func newSessionStore(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (session.Store, func(context.Context) error, func(), error) {
	if cfg.SessionStore == "redis" {
		client, err := session.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		store := session.NewRedisStore(client)
		logger.Info("Session store ready", "backend", "redis")
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close redis client", "error", err)
			}
		}
		return store, store.Healthcheck, closeFn, nil
	}

	store := session.NewMemoryStore()
	store.StartSweeper(ctx, sweepInterval, logger)
	logger.Info("Session store ready", "backend", "memory")
	return store, func(context.Context) error { return nil }, func() {}, nil
}

// newDrafter builds the configured AI provider.
func newDrafter(cfg *internal.Config, logger *slog.Logger) (ai.Drafter, error) {
	providerConfig := ai.ProviderConfig{RequestTimeout: cfg.AIRequestTimeout}

	switch cfg.AIProvider {
	case "gemini":
		return gemini.New(gemini.Config{
			APIKey:         cfg.GoogleAPIKey,
			Model:          cfg.GeminiModel,
			ProviderConfig: providerConfig,
		}, logger)
	case "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey:         cfg.AnthropicAPIKey,
			Model:          cfg.AnthropicModel,
			ProviderConfig: providerConfig,
		}, logger)
	case "mock":
		return mock.New(logger), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
