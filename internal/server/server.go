// Package server provides the HTTP API for ingesting profiles and chatting about them.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/icebreaker/internal/config"
	"github.com/hyperjump/icebreaker/internal/engine"
	"github.com/hyperjump/icebreaker/pkg/utils"
	"go.uber.org/zap"
)

// DiskUsager reports bytes used on disk. The transcript store implements it.
type DiskUsager interface {
	DiskUsage() (int64, error)
}

// Server is the HTTP server for the icebreaker API.
type Server struct {
	engine *engine.Engine
	config *config.Config
	usage  DiskUsager
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies. usage may be nil.
func NewServer(eng *engine.Engine, cfg *config.Config, usage DiskUsager, logger *zap.Logger) *Server {
	return &Server{
		engine: eng,
		config: cfg,
		usage:  usage,
		logger: utils.OrNop(logger),
	}
}

// Router returns the API routes.
func (s *Server) Router() http.Handler {
	timeout := s.config.Server.WriteTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/profiles", s.handleIngest)
	r.Route("/api/v1/sessions/{id}", func(r chi.Router) {
		r.Post("/messages", s.handleAsk)
		r.Get("/messages", s.handleHistory)
	})
	r.Get("/api/v1/models", s.handleModels)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.Router(),
		ReadTimeout: s.config.Server.ReadTimeout,
		// the write deadline must outlast the request timeout middleware
		WriteTimeout: s.config.Server.WriteTimeout + 5*time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
