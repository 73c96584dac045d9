package workflow

import (
	"time"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/stage"
)

// StageSet bundles the concrete pipeline handlers the manager orchestrates.
type StageSet struct {
	Research  stage.Handler
	Draft     stage.Handler
	Naming    stage.Handler
	Synthesis stage.Handler
	Catalog   stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
	timeout          time.Duration
}

// buildStages maps the status machine onto the configured handlers. Nil
// handlers are skipped so partial wirings (tests, one-shot tools) still work;
// the next stage then simply never claims the orphaned status.
func buildStages(cfg *config.Config, set StageSet) []pipelineStage {
	seconds := func(value int) time.Duration { return time.Duration(value) * time.Second }

	candidates := []pipelineStage{
		{
			name:             "research",
			handler:          set.Research,
			startStatus:      queue.StatusAccepted,
			processingStatus: queue.StatusResearching,
			doneStatus:       queue.StatusResearched,
			timeout:          seconds(cfg.Workflow.ResearchTimeout),
		},
		{
			name:             "draft",
			handler:          set.Draft,
			startStatus:      queue.StatusResearched,
			processingStatus: queue.StatusDrafting,
			doneStatus:       queue.StatusDrafted,
			timeout:          seconds(cfg.Workflow.DraftTimeout),
		},
		{
			name:             "naming",
			handler:          set.Naming,
			startStatus:      queue.StatusDrafted,
			processingStatus: queue.StatusNaming,
			doneStatus:       queue.StatusNamingAssigned,
			timeout:          seconds(cfg.Workflow.NamingTimeout),
		},
		{
			name:             "synthesis",
			handler:          set.Synthesis,
			startStatus:      queue.StatusNamingAssigned,
			processingStatus: queue.StatusSynthesizing,
			doneStatus:       queue.StatusSynthesized,
			timeout:          seconds(cfg.Workflow.SynthesisTimeout),
		},
		{
			name:             "catalog",
			handler:          set.Catalog,
			startStatus:      queue.StatusSynthesized,
			processingStatus: queue.StatusCataloging,
			doneStatus:       queue.StatusCompleted,
			timeout:          seconds(cfg.Workflow.CatalogTimeout),
		},
	}

	stages := make([]pipelineStage, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.handler == nil {
			continue
		}
		stages = append(stages, candidate)
	}
	return stages
}
