package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	maxUploadBytes int64

	// Services
	authService     driving.AuthService
	resourceService driving.ResourceService
	adminService    driving.AdminService
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	MaxUploadBytes int64
	AllowedOrigins []string
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		MaxUploadBytes: 50 << 20,
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authService driving.AuthService,
	resourceService driving.ResourceService,
	adminService driving.AdminService,
) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:          http.NewServeMux(),
		version:         cfg.Version,
		logger:          logger,
		maxUploadBytes:  cfg.MaxUploadBytes,
		authService:     authService,
		resourceService: resourceService,
		adminService:    adminService,
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = DefaultConfig().MaxUploadBytes
	}

	var handler http.Handler = s.router
	handler = NewLoggingMiddleware(logger).Handler(handler)
	if len(cfg.AllowedOrigins) > 0 {
		handler = NewCORSMiddleware(cfg.AllowedOrigins).Handler(handler)
	}
	handler = NewRecoveryMiddleware(logger).Handler(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)
	uploaders := authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleTeacher)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /api/v1/openapi.json", s.handleOpenAPI)

	// Upload (teachers and admins)
	s.router.Handle("POST /api/v1/resources",
		authMiddleware.Authenticate(
			uploaders(http.HandlerFunc(s.handleUploadResource))))

	// Read endpoints (any authenticated caller)
	s.router.Handle("GET /api/v1/resources",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListResources)))
	s.router.Handle("GET /api/v1/resources/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetResource)))
	s.router.Handle("GET /api/v1/resources/{id}/chunks",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetResourceChunks)))
	s.router.Handle("GET /api/v1/resources/{id}/content",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetResourceContent)))

	// Admin endpoints (admin-only)
	s.router.Handle("GET /api/v1/admin/queue",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleQueueStats))))
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
