package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garywelz/copernicus-web-sub000/internal/drafter"
	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/notifications"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
)

func (m *Manager) processJob(ctx context.Context, workerLogger *slog.Logger, stg pipelineStage, job *queue.Job) error {
	requestID := uuid.NewString()
	// persistCtx carries the stage metadata but not the stage deadline, so
	// failure and result writes still land after a stage timeout fires.
	persistCtx := withStageContext(ctx, stg.name, job, requestID)
	stageCtx := persistCtx
	if stg.timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(stageCtx, stg.timeout)
		defer cancel()
	}
	stageLogger := m.stageLogger(stageCtx, workerLogger)

	stageStart := time.Now()
	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processingStatus)),
		logging.String("topic", strings.TrimSpace(job.Topic)),
		logging.String(logging.FieldCanonicalName, strings.TrimSpace(job.CanonicalName)),
	)

	if err := stg.handler.Prepare(stageCtx, job); err != nil {
		err = m.classifyStageContextError(ctx, stg, err)
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return err
		}
		m.handleStageFailure(persistCtx, stg.name, job, err)
		m.setLastError(err)
		return err
	}
	if err := m.store.Update(persistCtx, job); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	execErr := m.executeWithHeartbeat(stageCtx, stg, job)
	if execErr != nil {
		execErr = m.classifyStageContextError(ctx, stg, execErr)
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(persistCtx, stg.name, job, execErr)
		m.setLastError(execErr)
		return execErr
	}

	if job.Status == stg.processingStatus || job.Status == "" {
		job.Status = stg.doneStatus
	}
	job.LastHeartbeat = nil
	if job.Status == queue.StatusCompleted && job.ProgressPercent < 100 {
		job.ProgressPercent = 100
	}
	// Persist with the worker context so a stage deadline that fires between
	// Execute returning and this write cannot lose a finished stage.
	if err := m.store.Update(ctx, job); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(job.Status)),
		logging.String("progress_stage", strings.TrimSpace(job.ProgressStage)),
		logging.String("progress_message", strings.TrimSpace(job.ProgressMessage)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	m.setLastJob(job)
	if job.Status == queue.StatusCompleted {
		m.notifyJobCompleted(ctx, job)
	}
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, stg pipelineStage, job *queue.Job) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, job.ID)

	execErr := stg.handler.Execute(ctx, job)
	hbCancel()
	hbWG.Wait()
	return execErr
}

// classifyStageContextError distinguishes a stage deadline from a daemon
// shutdown. A deadline becomes a timeout failure for the job; a shutdown
// propagates so the worker exits without failing the job.
func (m *Manager) classifyStageContextError(parent context.Context, stg pipelineStage, err error) error {
	if err == nil {
		return nil
	}
	if parent.Err() != nil {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, services.ErrTimeout) {
		return services.Wrap(services.ErrTimeout, stg.name, "execute",
			fmt.Sprintf("Stage timed out after %s", stg.timeout), err)
	}
	return err
}

func (m *Manager) notifyJobCompleted(ctx context.Context, job *queue.Job) {
	if m.notifier == nil {
		return
	}
	title := strings.TrimSpace(job.Topic)
	if script, err := drafter.DecodeScript(job.ScriptJSON); err == nil && strings.TrimSpace(script.Title) != "" {
		title = strings.TrimSpace(script.Title)
	}
	if err := m.notifier.Publish(ctx, notifications.EventJobCompleted, notifications.Payload{
		"title":          title,
		"canonical_name": job.CanonicalName,
	}); err != nil {
		m.logger.Debug("job completion notification failed", logging.Error(err))
	}
}
