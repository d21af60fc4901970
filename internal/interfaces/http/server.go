// Package http exposes the voucher service over a JSON API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medcenter/hms-vouchers/internal/application/service"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// HealthChecker reports whether the backing resources are usable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// APIToken, when set, is required as a bearer token on /api routes
	APIToken string
	Version  string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8000,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Version:      "1.0.0",
	}
}

// Server is the HTTP server adapter
type Server struct {
	config         ServerConfig
	httpServer     *http.Server
	router         *gin.Engine
	voucherService service.VoucherService
	health         HealthChecker
	logger         Logger
}

// NewServer creates a new HTTP server. health may be nil.
func NewServer(
	config ServerConfig,
	voucherService service.VoucherService,
	health HealthChecker,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:         config,
		router:         router,
		voucherService: voucherService,
		health:         health,
		logger:         logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(loggingMiddleware(s.logger))
}

func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.voucherService, s.health, s.config.Version, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api")
	api.Use(authMiddleware(s.config.APIToken))
	{
		api.GET("/vouchers", handlers.ListVouchers)
		api.GET("/vouchers/summary", handlers.Summary)
		api.GET("/vouchers/export", handlers.ExportVouchers)
		api.GET("/vouchers/:id", handlers.GetVoucher)
		api.GET("/vouchers/:id/history", handlers.History)
		api.POST("/vouchers", handlers.CreateVoucher)
		api.POST("/vouchers/:id/submit", handlers.Transition(workflow.TriggerSubmit))
		api.POST("/vouchers/:id/approve", handlers.Transition(workflow.TriggerApprove))
		api.POST("/vouchers/:id/reject", handlers.Transition(workflow.TriggerReject))
		api.POST("/vouchers/:id/pay", handlers.Transition(workflow.TriggerPay))
		api.DELETE("/vouchers/:id", handlers.Transition(workflow.TriggerDelete))

		api.GET("/doctors", handlers.ListDoctors)
	}
}

// Start serves until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
