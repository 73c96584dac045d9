package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
)

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.statusOrder) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}
	workers := m.workerCount()

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(workers)
	m.mu.Unlock()

	// Jobs left in-flight by a previous process restart their stage.
	if reset, err := m.store.ResetStuckProcessing(runCtx); err != nil {
		m.logger.Warn("failed to reset stuck processing jobs", logging.Error(err))
	} else if reset > 0 {
		m.logger.Info("reset stuck processing jobs", logging.Int64("count", reset))
	}

	for i := 1; i <= workers; i++ {
		go m.runWorker(runCtx, fmt.Sprintf("worker-%d", i), i == 1)
	}
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// runWorker is the claim loop for a single worker. Only the first worker runs
// the stale-job reclaimer so reclamation happens once per poll cycle.
func (m *Manager) runWorker(ctx context.Context, label string, runReclaimer bool) {
	defer m.wg.Done()

	workerCtx := services.WithWorker(ctx, label)
	logger := m.workerLogger(label)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if runReclaimer {
			if err := m.heartbeat.ReclaimStaleJobs(workerCtx, logger); err != nil {
				logger.Warn("reclaim stale processing failed; stuck jobs may remain",
					logging.Error(err),
					logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
					logging.String(logging.FieldErrorHint, "check queue database access"),
				)
			}
		}

		job, stg, err := m.claimNext(workerCtx)
		if err != nil {
			m.handleClaimError(ctx, logger, err)
			continue
		}
		if job == nil {
			m.waitForJobOrShutdown(ctx)
			continue
		}

		if err := m.processJob(workerCtx, logger, stg, job); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

// claimNext atomically selects the next ready job and transitions it to its
// stage's processing status. Holding claimMu across the select-and-persist
// keeps a single worker as the owner of the claimed job.
func (m *Manager) claimNext(ctx context.Context) (*queue.Job, pipelineStage, error) {
	m.claimMu.Lock()
	defer m.claimMu.Unlock()

	job, err := m.store.NextForStatuses(ctx, m.statusOrder...)
	if err != nil || job == nil {
		return nil, pipelineStage{}, err
	}
	stg, ok := m.stageByStart[job.Status]
	if !ok {
		return nil, pipelineStage{}, fmt.Errorf("no stage configured for status %s", job.Status)
	}

	job.BeginStage(stg.processingStatus)
	if err := m.store.Update(ctx, job); err != nil {
		return nil, pipelineStage{}, fmt.Errorf("persist processing transition: %w", err)
	}
	m.setLastJob(job)
	return job, stg, nil
}

func (m *Manager) handleClaimError(ctx context.Context, logger *slog.Logger, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	m.setLastError(err)
	logger.Error("failed to claim next queue job",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_fetch_failed"),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second):
	}
}

func (m *Manager) waitForJobOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}
