package queue

import (
	"context"
	"fmt"
	"time"
)

func rollbackCaseClause() (string, []any) {
	clause := `CASE status`
	args := make([]any, 0, len(stageRollbackTransitions)*2)
	for range stageRollbackTransitions {
		clause += ` WHEN ? THEN ?`
	}
	clause += ` ELSE status END`
	for _, transition := range stageRollbackTransitions {
		args = append(args, transition.from, transition.to)
	}
	return clause, args
}

func processingPlaceholderArgs() (string, []any) {
	args := make([]any, 0, len(stageRollbackTransitions))
	for _, transition := range stageRollbackTransitions {
		args = append(args, transition.from)
	}
	return makePlaceholders(len(args)), args
}

// ResetStuckProcessing rolls jobs in processing states back to the start of
// their current stage. Used at daemon startup to recover from a crash.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	caseClause, caseArgs := rollbackCaseClause()
	inClause, inArgs := processingPlaceholderArgs()

	args := make([]any, 0, len(caseArgs)+1+len(inArgs))
	args = append(args, caseArgs...)
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano))
	args = append(args, inArgs...)

	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = `+caseClause+`,
             progress_stage = 'Reset from stuck processing',
             progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE status IN (`+inClause+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight job.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleProcessing rolls jobs stuck in processing back to the start of
// their current stage when their heartbeats expire.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	caseClause, caseArgs := rollbackCaseClause()
	inClause, inArgs := processingPlaceholderArgs()

	args := make([]any, 0, len(caseArgs)+1+len(inArgs)+1)
	args = append(args, caseArgs...)
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano))
	args = append(args, inArgs...)
	args = append(args, cutoff.UTC().Format(time.RFC3339Nano))

	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
        SET status = `+caseClause+`,
            progress_stage = 'Reclaimed from stale processing',
            progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
        WHERE status IN (`+inClause+`) AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed jobs back to accepted for reprocessing.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE jobs
            SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
                progress_message = NULL, error_message = NULL, updated_at = ?
            WHERE status = ?`,
			StatusAccepted,
			time.Now().UTC().Format(time.RFC3339Nano),
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed jobs: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, StatusAccepted, time.Now().UTC().Format(time.RFC3339Nano))
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE jobs
        SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
            progress_message = NULL, error_message = NULL, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status = '` + string(StatusFailed) + `'`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected jobs: %w", err)
	}
	return res.RowsAffected()
}

// FailInFlight marks all in-flight jobs failed with the given reason. Used
// during daemon shutdown when jobs cannot be resumed.
func (s *Store) FailInFlight(ctx context.Context, reason string) (int64, error) {
	inClause, inArgs := processingPlaceholderArgs()
	args := make([]any, 0, len(inArgs)+3)
	args = append(args, StatusFailed, reason, time.Now().UTC().Format(time.RFC3339Nano))
	args = append(args, inArgs...)

	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
        SET status = ?, error_message = ?, last_heartbeat = NULL, updated_at = ?
        WHERE status IN (`+inClause+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("fail in-flight jobs: %w", err)
	}
	return res.RowsAffected()
}
