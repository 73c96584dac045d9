// Command copernicusd runs the Copernicus generation daemon: the worker pool,
// the HTTP API, scheduled feed reconciliation, and push notifications.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/daemon"
	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/workflow"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return
	}

	workflowManager := workflow.NewManager(cfg, store, logger)
	synchronizer, err := configureStages(workflowManager, cfg, store, logger)
	if err != nil {
		logger.Error("configure stages", logging.Error(err))
		return
	}

	if err := workflowManager.RunPreflightChecks(ctx, logger); err != nil {
		logger.Error("preflight checks failed", logging.Error(err))
		return
	}

	d, err := daemon.New(cfg, store, logger, workflowManager, synchronizer)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("copernicusd shutting down")
	d.Stop()
}
