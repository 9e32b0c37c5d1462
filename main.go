package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riven-blade/smartconnect/config"
	"github.com/riven-blade/smartconnect/core"
	"github.com/riven-blade/smartconnect/pkg/logger"

	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logger.Ctx(context.Background()).Fatal("Failed to load config", zap.Error(err))
	}
	if err := logger.Init(cfg.Log); err != nil {
		logger.Ctx(context.Background()).Fatal("Failed to init logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	ctx, span := logger.NewIntentContext(cfg.Name, "run")
	defer span.End()

	logger.Ctx(ctx).Info("🚀 Starting smartconnect", zap.String("clientCode", cfg.Credentials.ClientCode))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	svc, err := core.NewService(ctx, cfg, core.LogHandler{})
	if err != nil {
		logger.Ctx(ctx).Fatal("Failed to create service", zap.Error(err))
	}
	if err := svc.Start(ctx); err != nil {
		logger.Ctx(ctx).Fatal("Failed to start service", zap.Error(err))
	}

	waitForShutdown(ctx, cancel, svc)

	logger.Ctx(ctx).Info("👋 smartconnect stopped gracefully")
}

func loadConfig() (*config.Config, error) {
	configPath := os.Getenv("SMARTCONNECT_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Environ()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc, svc *core.Service) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Ctx(ctx).Info("Received shutdown signal", zap.String("signal", sig.String()))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()

	// SIGTERM keeps the session for the next start, SIGINT logs out.
	logout := sig == syscall.SIGINT
	if err := svc.Stop(stopCtx, logout); err != nil {
		logger.Ctx(ctx).Error("Failed to stop service gracefully", zap.Error(err))
	}

	cancel()
}
