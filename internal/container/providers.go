// Package container wires the voucher backend together and owns its lifecycle.
package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/medcenter/hms-vouchers/internal/application/dispatcher"
	"github.com/medcenter/hms-vouchers/internal/application/port"
	"github.com/medcenter/hms-vouchers/internal/application/service"
	"github.com/medcenter/hms-vouchers/internal/config"
	"github.com/medcenter/hms-vouchers/internal/domain/event"
	"github.com/medcenter/hms-vouchers/internal/infrastructure/export"
	infraLark "github.com/medcenter/hms-vouchers/internal/infrastructure/external/lark"
	"github.com/medcenter/hms-vouchers/internal/infrastructure/persistence/repository"
	"github.com/medcenter/hms-vouchers/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/medcenter/hms-vouchers/internal/interfaces/http"
	"github.com/medcenter/hms-vouchers/pkg/database"
	"github.com/medcenter/hms-vouchers/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database and applies the embedded migrations.
func ProvideDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(ctx, database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Run(ctx, sqlite.Migrations, sqlite.MigrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &RepositoryBundle{
		Voucher: repository.NewVoucherRepository(db.DB, logger),
		Doctor:  repository.NewDoctorRepository(db.DB, logger),
		History: repository.NewHistoryRepository(db.DB, logger),
	}, nil
}

// ProvideMessenger returns the Lark messenger, or nil when notifications are off.
func ProvideMessenger(cfg config.LarkConfig, logger *zap.Logger) port.ChatMessenger {
	if !cfg.Enabled() {
		logger.Info("Lark notifications disabled")
		return nil
	}

	return infraLark.NewMessenger(infraLark.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		BaseURL:   cfg.BaseURL,
	}, logger)
}

// ProvideRegisterRenderer creates the xlsx voucher register renderer.
func ProvideRegisterRenderer(cfg config.ExportConfig, logger *zap.Logger) port.RegisterRenderer {
	return export.NewRegisterRenderer(export.Config{
		SheetName:   cfg.SheetName,
		CompanyName: cfg.CompanyName,
	}, logger)
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.NewKeyValueLogger(logger.Named("dispatcher"))),
	)
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Messenger  port.ChatMessenger
	Renderer   port.RegisterRenderer
	Lark       config.LarkConfig
	Logger     *zap.Logger
}

// ProvideServices creates the application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	serviceLogger := utils.NewKeyValueLogger(deps.Logger.Named("service"))

	bundle := &ServiceBundle{
		Voucher: service.NewVoucherService(
			deps.Repos.Voucher,
			deps.Repos.Doctor,
			deps.Repos.History,
			deps.TxManager,
			deps.Dispatcher,
			serviceLogger,
			service.WithRegisterRenderer(deps.Renderer),
		),
	}

	if deps.Messenger != nil {
		bundle.Notification = service.NewNotificationService(deps.Messenger, service.NotificationTargets{
			ApproverChatID:   deps.Lark.ApproverChatID,
			AccountantChatID: deps.Lark.AccountantChatID,
		}, serviceLogger)
	}

	return bundle, nil
}

// SubscribeHandlers registers the event log and, when configured, the Lark notifier.
func SubscribeHandlers(d dispatcher.Dispatcher, services *ServiceBundle, logger *zap.Logger) {
	eventLogger := logger.Named("events")
	for _, eventType := range event.Types() {
		d.SubscribeNamed(eventType, "event-log", func(ctx context.Context, evt *event.Event) error {
			eventLogger.Info("Voucher event",
				zap.String("event_id", evt.ID),
				zap.String("type", evt.Type.String()),
				zap.Int64("voucher_id", evt.VoucherID),
				zap.String("voucher_number", evt.VoucherNumber),
				zap.String("actor", evt.Actor),
				zap.String("correlation_id", evt.CorrelationID))
			return nil
		})
	}

	if services.Notification == nil {
		return
	}
	for _, eventType := range services.Notification.EventTypes() {
		d.SubscribeNamed(eventType, "lark-notification", services.Notification.HandleEvent)
	}
}

// ProvideServer creates the HTTP API server.
func ProvideServer(cfg config.ServerConfig, services *ServiceBundle, health httpapi.HealthChecker, logger *zap.Logger) *httpapi.Server {
	return httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Host,
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		APIToken:     cfg.APIToken,
		Version:      cfg.Version,
	}, services.Voucher, health, utils.NewKeyValueLogger(logger.Named("http")))
}
