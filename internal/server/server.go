package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mhuysamen/realmsync/internal/config"
	"github.com/mhuysamen/realmsync/internal/handler"
)

// Server encapsulates the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	logger     *zap.Logger
}

// New creates and configures a new Server.
func New(cfg *config.Config, h *handler.Handler, logger *zap.Logger) *Server {
	router := NewRouter(cfg, h, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	return &Server{
		httpServer: srv,
		cfg:        cfg,
		logger:     logger,
	}
}

// Start begins listening for requests.
func (s *Server) Start() error {
	s.logger.Info("starting realmsync server",
		zap.String("addr", s.httpServer.Addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
