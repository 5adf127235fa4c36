// Package server sets up the HTTP server, router, and all route definitions.
//
// ROUTES:
//
//	GET  /health         → liveness + in-flight executions (never gated)
//	POST /api/execute    → run one submission
//	GET  /api/languages  → enabled languages and synonyms
//
// Everything under /api requires a participant token when Config.JWTSecret is
// set. Responses are gzip-compressed when the client accepts it.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"

	"github.com/sakif/exam-ide/internal/auth"
	"github.com/sakif/exam-ide/internal/handler"
	"github.com/sakif/exam-ide/internal/middleware"
	"github.com/sakif/exam-ide/internal/service"
)

// shutdownGrace is how long in-flight requests get to finish on shutdown.
const shutdownGrace = 30 * time.Second

// Config holds server configuration.
type Config struct {
	Port int
	// JWTSecret enables the participant token gate on /api when non-empty.
	JWTSecret string
	// WriteTimeout must cover a full compile-then-run pipeline.
	WriteTimeout time.Duration
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	svc    *service.ExecutionService
	tokens *auth.TokenService
}

// New wires handlers, middleware and routes around svc.
func New(cfg Config, svc *service.ExecutionService, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		svc:    svc,
	}

	if cfg.JWTSecret != "" {
		tokens, err := auth.NewTokenService(cfg.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("creating token service: %w", err)
		}
		s.tokens = tokens
	} else {
		logger.Warn("auth.jwt_secret not set, /api is open to anyone who can reach the port")
	}

	s.setupRoutes()
	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// MIDDLEWARE ORDER:
//  1. RequestID: unique id per request, picked up by the logger
//  2. RealIP: client IP from proxy headers
//  3. Recoverer: a panicking handler becomes a 500
//  4. Logger: one structured line per request
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	executeHandler := handler.NewExecuteHandler(s.svc, s.logger)
	statusHandler := handler.NewStatusHandler(s.svc, s.logger)

	s.router.Get("/health", statusHandler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		if s.tokens != nil {
			r.Use(middleware.RequireAuth(s.tokens))
		}
		r.Post("/execute", executeHandler.HandleExecute)
		r.Get("/languages", statusHandler.HandleLanguages)
	})
}

// Handler returns the full handler chain, compression included.
func (s *Server) Handler() http.Handler {
	return gzhttp.GzipHandler(s.router)
}

// Start serves on Config.Port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("listening: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	writeTimeout := s.config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = time.Minute
	}

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", ln.Addr().String()),
			slog.Bool("auth", s.tokens != nil),
		)
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
