package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/micro-ha/nuki-bridge/addon/internal/config"
	"github.com/micro-ha/nuki-bridge/addon/internal/configsync"
	httpapi "github.com/micro-ha/nuki-bridge/addon/internal/http"
	"github.com/micro-ha/nuki-bridge/addon/internal/logging"
	"github.com/micro-ha/nuki-bridge/addon/internal/nuki"
	"github.com/micro-ha/nuki-bridge/addon/internal/storage"
	"github.com/micro-ha/nuki-bridge/addon/internal/verify"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DBDir(), 0o755); err != nil {
		logger.Error("failed to create data directory", "path", cfg.DBDir(), "err", err)
		os.Exit(1)
	}

	store, err := storage.New(ctx, cfg.DBPath, logger)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	syncClient := configsync.NewClient(cfg.HABaseURL, cfg.SupervisorToken)
	manager := configsync.NewManager(syncClient, logger)
	if _, err := manager.Refresh(ctx); err != nil {
		logger.Warn("initial config fetch failed, waiting for refresh", "err", err)
	}

	refresh := func() {
		changed, err := manager.Refresh(ctx)
		if err != nil {
			logger.Warn("config refresh failed", "err", err)
			return
		}
		if changed {
			logger.Info("integration config updated")
		}
	}

	if cfg.SupervisorToken != "" {
		watcher := configsync.NewWatcher(cfg.HABaseURL, cfg.SupervisorToken, logger)
		go watcher.Run(ctx, refresh)
	}
	go func() {
		ticker := time.NewTicker(cfg.ConfigRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refresh()
			}
		}
	}()

	deviceClient := nuki.NewClient(logger)
	engine := verify.New(deviceClient, logger)

	api, err := httpapi.New(engine, deviceClient, manager, store, logger, cfg.HistoryKeep)
	if err != nil {
		logger.Error("failed to build http api", "err", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("nuki bridge listening", "addr", cfg.HTTPAddr)
	if err := httpapi.RunServer(ctx, server, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
