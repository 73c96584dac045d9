package api

import (
	"sort"
	"time"

	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/workflow"
)

// FromJob converts a persisted job into its transport representation.
func FromJob(job *queue.Job) Job {
	if job == nil {
		return Job{}
	}
	view := Job{
		ID:            job.ID,
		Token:         job.Token,
		Topic:         job.Topic,
		Category:      job.Category,
		Kind:          job.Kind,
		Expertise:     job.Expertise,
		TargetMinutes: job.TargetMinutes,
		OwnerID:       job.OwnerID,
		Status:        string(job.Status),
		Progress: JobProgress{
			Stage:   job.ProgressStage,
			Percent: job.ProgressPercent,
			Message: job.ProgressMessage,
		},
		CanonicalName:   job.CanonicalName,
		DurationSeconds: job.DurationSeconds,
		Artifacts:       job.Artifacts(),
		ErrorMessage:    job.ErrorMessage,
		NeedsReview:     job.NeedsReview,
		ReviewReason:    job.ReviewReason,
	}
	if !job.CreatedAt.IsZero() {
		view.CreatedAt = job.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if !job.UpdatedAt.IsZero() {
		view.UpdatedAt = job.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return view
}

// FromJobs converts a slice of persisted jobs.
func FromJobs(jobs []*queue.Job) []Job {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStatusSummary converts workflow diagnostics into the API shape.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	stats := make(map[string]int, len(summary.QueueStats))
	for status, count := range summary.QueueStats {
		stats[string(status)] = count
	}
	health := make([]StageHealth, 0, len(summary.StageHealth))
	for _, entry := range summary.StageHealth {
		health = append(health, StageHealth{
			Name:   entry.Name,
			Ready:  entry.Ready,
			Detail: entry.Detail,
		})
	}
	sort.Slice(health, func(i, j int) bool { return health[i].Name < health[j].Name })

	status := WorkflowStatus{
		Running:     summary.Running,
		QueueStats:  stats,
		LastError:   summary.LastError,
		StageHealth: health,
	}
	if summary.LastJob != nil {
		converted := FromJob(summary.LastJob)
		status.LastJob = &converted
	}
	return status
}

// SortJobsNewestFirst orders jobs by CreatedAt descending, breaking ties by ID
// descending.
func SortJobsNewestFirst(jobs []Job) []Job {
	if len(jobs) == 0 {
		return nil
	}
	sorted := make([]Job, len(jobs))
	copy(sorted, jobs)
	sort.Slice(sorted, func(i, j int) bool {
		ti := ParseJobTime(sorted[i].CreatedAt)
		tj := ParseJobTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})
	return sorted
}

// ParseJobTime parses an API timestamp, tolerating both second and nanosecond
// precision.
func ParseJobTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
