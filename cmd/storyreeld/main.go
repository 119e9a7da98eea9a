package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"storyreel/internal/config"
	"storyreel/internal/daemon"
	"storyreel/internal/logging"
	"storyreel/internal/scenes"
	"storyreel/internal/workflow"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := scenes.Open(cfg)
	if err != nil {
		logger.Error("open scene store", logging.Error(err))
		return
	}

	manager, err := workflow.NewManager(ctx, cfg, store, logger)
	if err != nil {
		logger.Error("build workflow manager", logging.Error(err))
		_ = store.Close()
		return
	}

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("storyreeld shutting down")
}
