package api

// GenerationRequest is the intake payload for a new episode generation job.
type GenerationRequest struct {
	Topic         string            `json:"topic"`
	Category      string            `json:"category"`
	Kind          string            `json:"kind"`
	Expertise     string            `json:"expertise,omitempty"`
	TargetMinutes int               `json:"targetMinutes,omitempty"`
	OwnerID       string            `json:"ownerId,omitempty"`
	Voices        map[string]string `json:"voices,omitempty"`
}

// JobProgress captures stage progress information for a job.
type JobProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// Job describes a generation job in a transport-friendly format.
type Job struct {
	ID              int64             `json:"id"`
	Token           string            `json:"token"`
	Topic           string            `json:"topic"`
	Category        string            `json:"category"`
	Kind            string            `json:"kind"`
	Expertise       string            `json:"expertise,omitempty"`
	TargetMinutes   int               `json:"targetMinutes,omitempty"`
	OwnerID         string            `json:"ownerId,omitempty"`
	Status          string            `json:"status"`
	Progress        JobProgress       `json:"progress"`
	CanonicalName   string            `json:"canonicalName,omitempty"`
	DurationSeconds float64           `json:"durationSeconds,omitempty"`
	Artifacts       map[string]string `json:"artifacts,omitempty"`
	ErrorMessage    string            `json:"errorMessage,omitempty"`
	NeedsReview     bool              `json:"needsReview,omitempty"`
	ReviewReason    string            `json:"reviewReason,omitempty"`
	CreatedAt       string            `json:"createdAt,omitempty"`
	UpdatedAt       string            `json:"updatedAt,omitempty"`
}

// SubmitResponse acknowledges an accepted generation request.
type SubmitResponse struct {
	ID     int64  `json:"id"`
	Token  string `json:"token"`
	Status string `json:"status"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastJob     *Job           `json:"lastJob,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// DependencyStatus captures the readiness of an external dependency.
type DependencyStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	QueueDBPath  string             `json:"queueDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	EpisodeCount int                `json:"episodeCount"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// FeedSyncResponse reports the outcome of a feed reconciliation run.
type FeedSyncResponse struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Updated []string `json:"updated"`
}

// CountResponse reports how many rows a maintenance operation touched.
type CountResponse struct {
	Count int64 `json:"count"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status string `json:"status"`
}
