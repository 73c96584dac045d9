package drafter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/research"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
	"github.com/garywelz/copernicus-web-sub000/internal/stage"
)

// Stage drafts scripts for researched jobs.
type Stage struct {
	cfg     *config.Config
	drafter *Drafter
	logger  *slog.Logger
}

// NewStage constructs the drafting stage handler.
func NewStage(cfg *config.Config, drafter *Drafter, logger *slog.Logger) *Stage {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "drafter"))
	}
	return &Stage{cfg: cfg, drafter: drafter, logger: stageLogger}
}

func (s *Stage) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)
	job.InitProgress("Drafting", "Generating episode script")
	logger.Info("starting script draft", logging.String("topic", job.Topic))
	return nil
}

func (s *Stage) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)

	bundle, err := research.DecodeBundle(job.ResearchJSON)
	if err != nil {
		return services.Wrap(services.ErrValidation, "drafter", "decode research",
			"Job has no usable research bundle", err)
	}

	script, err := s.drafter.Draft(ctx, bundle, s.requestFor(job))
	if err != nil {
		return err
	}

	encoded, err := script.Encode()
	if err != nil {
		return services.Wrap(services.ErrTransient, "drafter", "encode script",
			"Failed to serialize the drafted script", err)
	}
	job.ScriptJSON = encoded
	job.Status = queue.StatusDrafted
	job.SetProgressComplete("Drafting",
		fmt.Sprintf("Drafted %d segments (%d words)", len(script.Segments), script.WordCount()))
	logger.Info("script draft complete",
		logging.String("model", script.Model),
		logging.Int("segment_count", len(script.Segments)),
	)
	return nil
}

// requestFor derives the drafting request from the job row: the speaker role
// set is the union of configured default voices and per-job overrides, and
// the expertise level and target duration are the values captured at intake.
func (s *Stage) requestFor(job *queue.Job) Request {
	roles := make(map[string]struct{})
	for role := range s.cfg.TTS.Voices {
		roles[role] = struct{}{}
	}
	for role := range job.RequestedVoices() {
		roles[role] = struct{}{}
	}
	ordered := make([]string, 0, len(roles))
	for role := range roles {
		ordered = append(ordered, role)
	}
	sort.Strings(ordered)

	expertise := job.Expertise
	if expertise == "" {
		expertise = "intermediate"
	}
	targetMinutes := job.TargetMinutes
	if targetMinutes <= 0 {
		targetMinutes = DefaultTargetMinutes
	}
	return Request{
		Topic:         job.Topic,
		Category:      job.Category,
		Kind:          job.Kind,
		Expertise:     expertise,
		TargetMinutes: targetMinutes,
		Roles:         ordered,
	}
}

func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	const name = "drafter"
	if s.drafter == nil || len(s.drafter.backends) == 0 {
		return stage.Unhealthy(name, "no drafting backends configured")
	}
	if s.cfg.LLM.APIKey == "" {
		return stage.Unhealthy(name, "llm api key not configured")
	}
	return stage.Healthy(name)
}
