package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/notifications"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, job *queue.Job, stageErr error) {
	base := m.logger
	if base == nil {
		base = logging.NewNop()
	}
	logger := logging.WithContext(ctx, base).With(logging.String("component", "workflow-manager"))

	message := classifyStageFailure(stageName, stageErr)
	job.SetFailed(message)
	m.releaseNameReservation(ctx, logger, job)

	details := services.Details(stageErr)
	attrs := []logging.Attr{
		logging.String("resolved_status", string(queue.StatusFailed)),
		logging.String("error_message", strings.TrimSpace(message)),
		logging.Alert("stage_failure"),
		logging.String(logging.FieldErrorKind, string(details.Kind)),
		logging.String(logging.FieldErrorOperation, details.Operation),
		logging.String(logging.FieldErrorHint, details.Hint),
	}
	if details.Cause != nil {
		attrs = append(attrs, logging.Error(details.Cause))
	} else {
		attrs = append(attrs, logging.Error(stageErr))
	}
	attrs = append(attrs, logging.String(logging.FieldEventType, "stage_failure"))
	logger.Error("stage failed", logging.Args(attrs...)...)

	if err := m.store.Update(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastJob(job)
	m.notifyJobFailed(ctx, stageName, job, message)
}

// releaseNameReservation frees a failed job's canonical name so the allocator
// can reissue it. Once audio is published under the name the object listing
// keeps it taken, so the assignment stays on the job for a later retry; before
// that point the assignment is dropped with the reservation.
func (m *Manager) releaseNameReservation(ctx context.Context, logger *slog.Logger, job *queue.Job) {
	if job.CanonicalName == "" {
		return
	}
	if err := m.store.ReleaseName(ctx, job.CanonicalName); err != nil {
		logger.Warn("failed to release canonical name reservation",
			logging.Error(err),
			logging.String("canonical_name", job.CanonicalName))
		return
	}
	if job.Artifacts()["audio"] == "" {
		job.CanonicalName = ""
	}
}

func (m *Manager) notifyJobFailed(ctx context.Context, stageName string, job *queue.Job, message string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, notifications.EventJobFailed, notifications.Payload{
		"topic": job.Topic,
		"stage": stageName,
		"error": message,
	}); err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("daemon shutting down, could not send failure notification")
		} else {
			m.logger.Debug("job failure notification failed", logging.Error(err))
		}
	}
}

func classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return stageFailureMessage(stageName, "failed without error detail")
	}

	details := services.Details(stageErr)
	message := strings.TrimSpace(details.Message)
	if message == "" {
		message = strings.TrimSpace(stageErr.Error())
	}
	if message == "" {
		message = stageFailureMessage(stageName, "failed")
	}
	return message
}

func stageFailureMessage(stageName, defaultMsg string) string {
	if stageName != "" {
		return fmt.Sprintf("%s %s", stageName, defaultMsg)
	}
	return fmt.Sprintf("workflow %s", defaultMsg)
}
