package research

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
	"github.com/garywelz/copernicus-web-sub000/internal/stage"
)

// Stage gathers research for accepted jobs.
type Stage struct {
	cfg        *config.Config
	aggregator *Aggregator
	logger     *slog.Logger
}

// NewStage constructs the research stage handler.
func NewStage(cfg *config.Config, aggregator *Aggregator, logger *slog.Logger) *Stage {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "research"))
	}
	return &Stage{cfg: cfg, aggregator: aggregator, logger: stageLogger}
}

func (s *Stage) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)
	job.InitProgress("Researching", "Querying scholarly indexes")
	logger.Info("starting research",
		logging.String("topic", job.Topic),
		logging.String("category", job.Category),
	)
	return nil
}

func (s *Stage) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)

	bundle, err := s.aggregator.Gather(ctx, job.Topic, job.Category)
	if err != nil {
		return err
	}

	encoded, err := bundle.Encode()
	if err != nil {
		return services.Wrap(services.ErrTransient, "research", "encode bundle",
			"Failed to serialize research results", err)
	}
	job.ResearchJSON = encoded
	job.Status = queue.StatusResearched
	job.SetProgressComplete("Researching",
		fmt.Sprintf("Gathered %d citations (quality %.1f)", len(bundle.Citations), bundle.QualityScore))
	logger.Info("research complete",
		logging.Int("citation_count", len(bundle.Citations)),
		logging.Float64("quality_score", bundle.QualityScore),
	)
	return nil
}

func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	const name = "research"
	if s.aggregator == nil {
		return stage.Unhealthy(name, "aggregator not configured")
	}
	if len(s.aggregator.providers) == 0 {
		return stage.Unhealthy(name, "no providers configured")
	}
	return stage.Healthy(name)
}
