// Package server exposes the vcs service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"codevault/internal/config"
	"codevault/internal/notify"
	"codevault/internal/vcs"
)

// Server wires HTTP routes to a vcs.Service and streams broadcaster events
// over websockets.
type Server struct {
	service     *vcs.Service
	broadcaster *notify.Broadcaster
	logger      vcs.Logger
	engine      *gin.Engine
}

// New builds a Server and registers its routes.
func New(service *vcs.Service, broadcaster *notify.Broadcaster, logger vcs.Logger) *Server {
	if logger == nil {
		logger = vcs.NewNopLogger()
	}

	engine := gin.New()
	engine.Use(requestID(), accessLog(logger), recovery(logger))

	s := &Server{
		service:     service,
		broadcaster: broadcaster,
		logger:      logger,
		engine:      engine,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)

	api := s.engine.Group("/api")
	{
		api.POST("/teams/:team_id/files", s.createFile)
		api.GET("/teams/:team_id/files", s.listFiles)

		api.GET("/files/:id", s.getFile)
		api.DELETE("/files/:id", s.deleteFile)
		api.PUT("/files/:id/draft", s.saveDraft)
		api.POST("/files/:id/publish", s.publish)
		api.GET("/files/:id/history", s.history)
		api.GET("/files/:id/download", s.download)

		api.GET("/commits/:id", s.getCommit)
		api.POST("/commits/:id/revert", s.revert)

		api.GET("/diff", s.diff)
		api.PUT("/authors/:id", s.putAuthor)

		api.GET("/events", s.events)
	}
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, cfg config.ServerConfig) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Addr, err)
	}
	return s.Serve(ctx, ln, cfg)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, cfg config.ServerConfig) error {
	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Duration)
	defer cancel()

	s.logger.Info("server shutting down")
	if s.broadcaster != nil {
		// ends open event streams so Shutdown does not wait on them
		s.broadcaster.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
