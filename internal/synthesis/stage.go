package synthesis

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
	"github.com/garywelz/copernicus-web-sub000/internal/services/tts"
	"github.com/garywelz/copernicus-web-sub000/internal/stage"
	"github.com/garywelz/copernicus-web-sub000/internal/storage"
)

// Stage synthesizes audio for jobs that hold a canonical name. A fresh
// engine is built per job so concurrent workers do not share run state.
type Stage struct {
	cfg    *config.Config
	client *tts.Client
	store  storage.Store
	logger *slog.Logger
}

// NewStage constructs the synthesis stage handler.
func NewStage(cfg *config.Config, client *tts.Client, store storage.Store, logger *slog.Logger) *Stage {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "synthesis"))
	}
	return &Stage{cfg: cfg, client: client, store: store, logger: stageLogger}
}

func (s *Stage) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)
	if !naming.IsCanonical(job.CanonicalName) {
		return services.Wrap(services.ErrValidation, "synthesis", "prepare",
			"Job reached synthesis without a canonical name", nil)
	}
	job.InitProgress("Synthesizing", "Preparing voice synthesis")
	logger.Info("starting synthesis", logging.String("canonical_name", job.CanonicalName))
	return nil
}

func (s *Stage) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)

	script, err := drafter.DecodeScript(job.ScriptJSON)
	if err != nil {
		return services.Wrap(services.ErrValidation, "synthesis", "decode script",
			"Job has no usable script", err)
	}

	engine := NewEngine(s.cfg, s.client, s.store, s.logger)
	engine.SetProgressFunc(func(state State, message string, percent float64) {
		job.SetProgress("Synthesizing", message, percent)
	})

	artifact, err := engine.Synthesize(ctx, job.CanonicalName, script, job.RequestedVoices())
	if err != nil {
		return err
	}

	artifacts := job.Artifacts()
	if artifacts == nil {
		artifacts = make(map[string]string)
	}
	artifacts["audio"] = artifact.URL
	encoded, err := json.Marshal(artifacts)
	if err != nil {
		return services.Wrap(services.ErrTransient, "synthesis", "encode artifacts",
			"Failed to serialize artifact URLs", err)
	}
	job.ArtifactsJSON = string(encoded)
	job.DurationSeconds = artifact.DurationSeconds
	job.Status = queue.StatusSynthesized
	job.SetProgressComplete("Synthesizing",
		fmt.Sprintf("Episode audio ready (%.0fs, %d bytes)", artifact.DurationSeconds, artifact.SizeBytes))
	logger.Info("synthesis complete",
		logging.String("canonical_name", job.CanonicalName),
		logging.Float64("duration_seconds", artifact.DurationSeconds),
		logging.Int64("size_bytes", artifact.SizeBytes),
	)
	return nil
}

func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	const name = "synthesis"
	if s.client == nil {
		return stage.Unhealthy(name, "tts client not configured")
	}
	if s.cfg.TTS.APIKey == "" {
		return stage.Unhealthy(name, "tts api key not configured")
	}
	if err := s.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("tts backend unreachable: %v", err))
	}
	return stage.Healthy(name)
}
