package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/drafter"
	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/naming"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
	"github.com/garywelz/copernicus-web-sub000/internal/stage"
)

// Stage publishes synthesized jobs into the catalog and feed.
type Stage struct {
	cfg    *config.Config
	sync   *Synchronizer
	logger *slog.Logger
}

// NewStage constructs the catalog stage handler.
func NewStage(cfg *config.Config, sync *Synchronizer, logger *slog.Logger) *Stage {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "catalog"))
	}
	return &Stage{cfg: cfg, sync: sync, logger: stageLogger}
}

func (s *Stage) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)
	if !naming.IsCanonical(job.CanonicalName) {
		return services.Wrap(services.ErrValidation, "catalog", "prepare",
			"Job reached cataloging without a canonical name", nil)
	}
	job.InitProgress("Cataloging", "Publishing episode")
	logger.Info("starting catalog publication", logging.String("canonical_name", job.CanonicalName))
	return nil
}

func (s *Stage) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)

	script, err := drafter.DecodeScript(job.ScriptJSON)
	if err != nil {
		return services.Wrap(services.ErrValidation, "catalog", "decode script",
			"Job has no usable script for publication", err)
	}

	episode, artifacts, err := s.sync.Publish(ctx, job, script)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(artifacts)
	if err != nil {
		return services.Wrap(services.ErrTransient, "catalog", "encode artifacts",
			"Failed to serialize artifact URLs", err)
	}
	job.ArtifactsJSON = string(encoded)
	job.Status = queue.StatusCompleted
	job.SetProgressComplete("Cataloging", fmt.Sprintf("Published %s", episode.CanonicalName))
	logger.Info("episode published",
		logging.String("canonical_name", episode.CanonicalName),
		logging.Int64("revision", episode.Revision),
	)
	return nil
}

func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	const name = "catalog"
	if s.sync == nil || s.sync.episodes == nil {
		return stage.Unhealthy(name, "episode store not configured")
	}
	if err := s.sync.objects.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("object store unreachable: %v", err))
	}
	return stage.Healthy(name)
}
