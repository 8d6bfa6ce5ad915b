// Package server provides the HTTP API for Kotae.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/corpus"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/storage"
)

// Server is the HTTP server for the Kotae API.
type Server struct {
	engine  *rag.Engine
	storage storage.Storage
	watcher *corpus.Watcher
	config  *config.ServerConfig
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies. watcher may be nil
// when corpus watching is disabled.
func NewServer(
	engine *rag.Engine,
	store storage.Storage,
	watcher *corpus.Watcher,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:  engine,
		storage: store,
		watcher: watcher,
		config:  cfg,
		logger:  logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	s.registerRoutes(r)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

func (s *Server) registerRoutes(r chi.Router) {
	r.Post("/api/ask", s.handleAsk)
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/examples", s.handleExamples)
	r.Post("/api/sessions", s.handleCreateSession)
	r.Get("/api/sessions/{id}/history", s.handleSessionHistory)
	r.Delete("/api/sessions/{id}", s.handleDeleteSession)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
