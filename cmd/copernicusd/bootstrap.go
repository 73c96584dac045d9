package main

import (
	"log/slog"

	"github.com/garywelz/copernicus-web-sub000/internal/catalog"
	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/drafter"
	"github.com/garywelz/copernicus-web-sub000/internal/naming"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/research"
	"github.com/garywelz/copernicus-web-sub000/internal/services/tts"
	"github.com/garywelz/copernicus-web-sub000/internal/storage"
	"github.com/garywelz/copernicus-web-sub000/internal/synthesis"
	"github.com/garywelz/copernicus-web-sub000/internal/workflow"
)

// configureStages wires the five pipeline stages into the workflow manager
// and returns the catalog synchronizer so the daemon can serve feed sync.
func configureStages(manager *workflow.Manager, cfg *config.Config, store *queue.Store, logger *slog.Logger) (*catalog.Synchronizer, error) {
	objects, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, err
	}
	episodes, err := catalog.Open(cfg)
	if err != nil {
		return nil, err
	}

	aggregator := research.NewAggregator(cfg.Research, []research.Provider{
		research.NewOpenAlexProvider("", nil),
		research.NewCrossrefProvider("", cfg.Feed.Email, nil),
		research.NewArxivProvider("", nil),
	}, logger)

	scriptDrafter := drafter.New(cfg, logger)
	allocator := naming.NewAllocator(cfg.Naming, objects, store)
	ttsClient := tts.NewClient(tts.Config{
		APIKey:         cfg.TTS.APIKey,
		BaseURL:        cfg.TTS.BaseURL,
		TimeoutSeconds: cfg.TTS.TimeoutSeconds,
	})
	synchronizer := catalog.NewSynchronizer(cfg, episodes, store, objects, logger)

	manager.ConfigureStages(workflow.StageSet{
		Research:  research.NewStage(cfg, aggregator, logger),
		Draft:     drafter.NewStage(cfg, scriptDrafter, logger),
		Naming:    naming.NewStage(cfg, allocator, logger),
		Synthesis: synthesis.NewStage(cfg, ttsClient, objects, logger),
		Catalog:   catalog.NewStage(cfg, synchronizer, logger),
	})

	return synchronizer, nil
}
