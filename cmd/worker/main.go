package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/framefarm/framefarm/internal/config"
	"github.com/framefarm/framefarm/internal/node"
	"github.com/framefarm/framefarm/pkg/logger"
)

func main() {
	configFile := "config.yml"
	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	client := node.NewClient(cfg.Worker.ServerURL, cfg.Worker.Username, cfg.Worker.Key)
	renderer := node.NewCommandRenderer(cfg.Worker.RenderBin)
	worker := node.NewNode(cfg, client, renderer, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Infof("shutting down worker")
		cancel()
	}()

	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		appLogger.Fatalf("worker stopped: %s", err)
	}
}
