package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"wagonquiz/internal/backend"
	"wagonquiz/internal/config"
	"wagonquiz/internal/handlers"
	"wagonquiz/internal/logging"
	"wagonquiz/internal/security"
	"wagonquiz/internal/service"
	"wagonquiz/internal/session"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := backend.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open backend: %w", err)
	}
	defer b.Close()

	log.Info("backend ready", zap.String("backend", cfg.Backend))

	if cfg.SessionSecret == "" {
		log.Warn("SESSION_SECRET is not set; sessions will not survive a restart")
	}

	// Initialize services
	// the identity travels in the session token, so nothing is saved locally
	verifier := service.NewVerifier(b.Users, nil, cfg.RequestTimeout, log)
	recorder := service.NewRecorder(b.Results, cfg.RequestTimeout, log)
	loader := service.NewConfigLoader(b.Tests, service.ParseMergePolicy(cfg.ConfigMerge), cfg.RequestTimeout, log)
	plays := service.NewPlayService(loader, recorder, session.NewMemoryStore(), log)
	results := service.NewResults(b.Results, cfg.RequestTimeout)

	tokens := security.NewTokenIssuer(cfg.SessionSecret, cfg.SessionDuration)
	limiter := security.NewRateLimiter(handlers.LoginAttempts, handlers.LoginWindow)
	defer limiter.Stop()

	// Initialize handlers
	middleware := handlers.NewMiddleware(tokens, log)
	api := handlers.NewAPIHandler(verifier, plays, results, tokens, limiter, handlers.NewRoundRegistry(), log)
	api.TrustProxy = cfg.TrustProxy

	// Setup routes
	mux := http.NewServeMux()
	api.Register(mux, middleware)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handlers.Logging(log)(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}

	// let in-flight result writes finish
	recorder.Wait()
	return nil
}
