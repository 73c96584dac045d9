package main

import (
	"context"
	"testing"

	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/testsupport"
	"github.com/garywelz/copernicus-web-sub000/internal/workflow"
)

func TestConfigureStagesWiresFullPipeline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	manager := workflow.NewManager(cfg, store, logging.NewNop())
	synchronizer, err := configureStages(manager, cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("configureStages: %v", err)
	}
	if synchronizer == nil {
		t.Fatal("expected a catalog synchronizer")
	}

	summary := manager.Status(context.Background())
	if len(summary.StageHealth) != 5 {
		t.Fatalf("expected 5 configured stages, got %d", len(summary.StageHealth))
	}
	for _, name := range []string{"research", "draft", "naming", "synthesis", "catalog"} {
		if _, ok := summary.StageHealth[name]; !ok {
			t.Fatalf("missing stage %q in %v", name, summary.StageHealth)
		}
	}
}
