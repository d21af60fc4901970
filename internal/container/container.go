package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/medcenter/hms-vouchers/internal/application/dispatcher"
	"github.com/medcenter/hms-vouchers/internal/application/port"
	"github.com/medcenter/hms-vouchers/internal/application/service"
	"github.com/medcenter/hms-vouchers/internal/config"
	"github.com/medcenter/hms-vouchers/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/medcenter/hms-vouchers/internal/interfaces/http"
	"github.com/medcenter/hms-vouchers/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and close in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	db           *database.DB
	txManager    *sqlite.DB
	repositories *RepositoryBundle

	messenger port.ChatMessenger
	renderer  port.RegisterRenderer

	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle
	server     *httpapi.Server

	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Voucher port.VoucherRepository
	Doctor  port.DoctorRepository
	History port.HistoryRepository
}

// ServiceBundle groups all application services. Notification is nil when
// Lark is not configured.
type ServiceBundle struct {
	Voucher      service.VoucherService
	Notification service.NotificationService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// database and repositories, external adapters, dispatcher and services, HTTP server.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized", zap.String("path", c.config.Database.Path))

	c.messenger = ProvideMessenger(c.config.Lark, c.logger.Named("lark"))
	c.renderer = ProvideRegisterRenderer(c.config.Export, c.logger.Named("export"))

	if err := c.initServices(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized",
		zap.Bool("notifications", c.services.Notification != nil))

	c.server = ProvideServer(c.config.Server, c.services, c, c.logger)

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Serve runs the HTTP server until ctx is cancelled
func (c *Container) Serve(ctx context.Context) error {
	c.mu.RLock()
	server := c.server
	c.mu.RUnlock()

	if server == nil {
		return fmt.Errorf("container not started")
	}
	return server.Start(ctx)
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop server: %w", err))
		}
	}

	// waits for in-flight notifications
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if err := c.closeDatabase(); err != nil {
		errs = append(errs, err)
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors: %w", len(errs), errs[0])
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Status returns health status of all components.
func (c *Container) Status(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	set := func(name string, healthy bool, message string) {
		status.Components[name] = ComponentHealth{Healthy: healthy, Message: message}
		if !healthy {
			status.Overall = false
		}
	}

	switch {
	case c.db == nil:
		set("database", false, "not initialized")
	default:
		if err := c.db.PingContext(ctx); err != nil {
			set("database", false, fmt.Sprintf("ping failed: %v", err))
		} else {
			set("database", true, "")
		}
	}

	if c.dispatcher != nil {
		set("dispatcher", true, "")
	} else {
		set("dispatcher", false, "not initialized")
	}

	if c.messenger != nil {
		set("notifications", true, "lark")
	} else {
		// notifications are optional
		set("notifications", true, "disabled")
	}

	return status
}

// Health implements the HTTP health check
func (c *Container) Health(ctx context.Context) error {
	status := c.Status(ctx)
	if status.Overall {
		return nil
	}
	for name, component := range status.Components {
		if !component.Healthy {
			return fmt.Errorf("%s: %s", name, component.Message)
		}
	}
	return fmt.Errorf("unhealthy")
}

func (c *Container) initDatabase(ctx context.Context) error {
	bundle, err := ProvideDatabase(ctx, c.config.Database, c.logger.Named("database"))
	if err != nil {
		return err
	}
	c.db = bundle.DB
	c.txManager = bundle.TransactionMgr

	repos, err := ProvideRepositories(c.db, c.logger.Named("repository"))
	if err != nil {
		c.closeDatabase()
		return err
	}
	c.repositories = repos
	return nil
}

func (c *Container) initServices() error {
	c.dispatcher = ProvideDispatcher(c.logger)

	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		TxManager:  c.txManager,
		Dispatcher: c.dispatcher,
		Messenger:  c.messenger,
		Renderer:   c.renderer,
		Lark:       c.config.Lark,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services

	SubscribeHandlers(c.dispatcher, c.services, c.logger)
	return nil
}

func (c *Container) closeDatabase() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
		return fmt.Errorf("close database: %w", err)
	}
	c.logger.Info("Database closed")
	return nil
}

// Repositories returns the repository bundle
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Services returns the service bundle
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Dispatcher returns the event dispatcher
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Server returns the HTTP server
func (c *Container) Server() *httpapi.Server {
	return c.server
}

// Logger returns the container logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the loaded configuration
func (c *Container) Config() *config.Config {
	return c.config
}
