package naming

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
	"github.com/garywelz/copernicus-web-sub000/internal/stage"
)

// Stage assigns a canonical name to drafted jobs.
type Stage struct {
	cfg       *config.Config
	allocator *Allocator
	logger    *slog.Logger
}

// NewStage constructs the naming stage handler.
func NewStage(cfg *config.Config, allocator *Allocator, logger *slog.Logger) *Stage {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "naming"))
	}
	return &Stage{cfg: cfg, allocator: allocator, logger: stageLogger}
}

func (s *Stage) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)
	job.InitProgress("Naming", "Allocating canonical name")
	logger.Info("starting name allocation",
		logging.String("topic", job.Topic),
		logging.String("category", job.Category),
		logging.String("kind", job.Kind),
	)
	return nil
}

func (s *Stage) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)

	// A job that already carries a canonical name keeps it; republication
	// must never renumber an episode.
	if IsCanonical(job.CanonicalName) {
		logger.Info("canonical name already assigned", logging.String("canonical_name", job.CanonicalName))
		job.Status = queue.StatusNamingAssigned
		job.SetProgressComplete("Naming", fmt.Sprintf("Kept existing name %s", job.CanonicalName))
		return nil
	}

	category, err := ParseCategory(job.Category)
	if err != nil {
		return services.Wrap(services.ErrValidation, "naming", "parse category",
			"Job category is not a known subject area", err)
	}
	kind, err := ParseKind(job.Kind)
	if err != nil {
		return services.Wrap(services.ErrValidation, "naming", "parse kind",
			"Job kind must be evergreen or news", err)
	}

	name, err := s.allocator.Allocate(ctx, kind, category, job.CreatedAt, job.Token)
	if err != nil {
		return err
	}

	job.CanonicalName = name.String()
	job.Status = queue.StatusNamingAssigned
	job.SetProgressComplete("Naming", fmt.Sprintf("Assigned %s", job.CanonicalName))
	logger.Info("canonical name assigned", logging.String("canonical_name", job.CanonicalName))
	return nil
}

func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	const name = "naming"
	if s.allocator == nil {
		return stage.Unhealthy(name, "allocator not configured")
	}
	if lockDir := s.cfg.Naming.LockDir; lockDir != "" {
		if err := os.MkdirAll(lockDir, 0o755); err != nil {
			return stage.Unhealthy(name, fmt.Sprintf("lock directory unavailable: %v", err))
		}
	}
	return stage.Healthy(name)
}
