package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/medcenter/hms-vouchers/internal/config"
	"github.com/medcenter/hms-vouchers/internal/container"
	"github.com/medcenter/hms-vouchers/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file (empty for defaults and environment only)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting HMS voucher service",
		zap.String("version", cfg.Server.Version),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("notifications", cfg.Lark.Enabled()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}

	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}

	serveErr := c.Serve(ctx)
	if serveErr != nil {
		logger.Error("HTTP server stopped with error", zap.Error(serveErr))
	}

	logger.Info("Shutting down...")
	if err := c.Close(); err != nil {
		logger.Error("Shutdown finished with errors", zap.Error(err))
		os.Exit(1)
	}
	if serveErr != nil {
		os.Exit(1)
	}

	logger.Info("Server exited successfully")
}
