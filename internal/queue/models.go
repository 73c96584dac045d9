package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Status represents the lifecycle of a generation job.
type Status string

const (
	StatusAccepted       Status = "accepted"
	StatusResearching    Status = "researching"
	StatusResearched     Status = "researched"
	StatusDrafting       Status = "drafting"
	StatusDrafted        Status = "drafted"
	StatusNaming         Status = "naming"
	StatusNamingAssigned Status = "naming_assigned"
	StatusSynthesizing   Status = "synthesizing"
	StatusSynthesized    Status = "synthesized"
	StatusCataloging     Status = "cataloging"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
)

// DaemonStopReason is the error message set when jobs are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusAccepted,
	StatusResearching,
	StatusResearched,
	StatusDrafting,
	StatusDrafted,
	StatusNaming,
	StatusNamingAssigned,
	StatusSynthesizing,
	StatusSynthesized,
	StatusCataloging,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusResearching:  {},
	StatusDrafting:     {},
	StatusNaming:       {},
	StatusSynthesizing: {},
	StatusCataloging:   {},
}

type statusTransition struct {
	from Status
	to   Status
}

// stageRollbackTransitions map each in-flight status back to the ready state
// that precedes it, so a crashed or reclaimed job restarts its current stage.
var stageRollbackTransitions = []statusTransition{
	{from: StatusResearching, to: StatusAccepted},
	{from: StatusDrafting, to: StatusResearched},
	{from: StatusNaming, to: StatusDrafted},
	{from: StatusSynthesizing, to: StatusNamingAssigned},
	{from: StatusCataloging, to: StatusSynthesized},
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Accepted   int
	Processing int
	Failed     int
	Completed  int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}

// Job represents a generation job persisted in SQLite. JSON columns carry the
// intermediate pipeline products: the research bundle after the research
// stage, the structured script after drafting, and the artifact URL map after
// synthesis and catalog publication.
type Job struct {
	ID              int64
	Token           string
	Topic           string
	Category        string
	Kind            string
	Expertise       string
	TargetMinutes   int
	OwnerID         string
	Status          Status
	VoicesJSON      string
	ResearchJSON    string
	ScriptJSON      string
	CanonicalName   string
	ArtifactsJSON   string
	DurationSeconds float64
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	LastHeartbeat   *time.Time
	NeedsReview     bool
	ReviewReason    string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight stage.
func (j Job) IsProcessing() bool {
	return IsProcessingStatus(j.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether the status ends the lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// RequestedVoices decodes the per-job voice override map (role to voice name).
func (j Job) RequestedVoices() map[string]string {
	if strings.TrimSpace(j.VoicesJSON) == "" {
		return nil
	}
	var voices map[string]string
	if err := json.Unmarshal([]byte(j.VoicesJSON), &voices); err != nil {
		return nil
	}
	return voices
}

// Artifacts decodes the published artifact URL map (audio, thumbnail,
// transcript, description).
func (j Job) Artifacts() map[string]string {
	if strings.TrimSpace(j.ArtifactsJSON) == "" {
		return nil
	}
	var artifacts map[string]string
	if err := json.Unmarshal([]byte(j.ArtifactsJSON), &artifacts); err != nil {
		return nil
	}
	return artifacts
}

// InitProgress resets progress fields at the start of a stage.
func (j *Job) InitProgress(stage, message string) {
	j.ProgressStage = stage
	j.ProgressMessage = message
	j.ProgressPercent = 0
	j.ErrorMessage = ""
}

// SetProgress updates all three progress fields atomically.
func (j *Job) SetProgress(stage, message string, percent float64) {
	j.ProgressStage = stage
	j.ProgressMessage = message
	j.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (j *Job) SetProgressComplete(stage, message string) {
	j.SetProgress(stage, message, 100)
}

// BeginStage moves the job into an in-flight status and primes the progress
// fields for the stage about to run. Progress text already set by a retry or
// reset path is preserved.
func (j *Job) BeginStage(processing Status) {
	now := time.Now().UTC()
	j.Status = processing
	if j.ProgressStage == "" {
		j.ProgressStage = StageLabel(processing)
	}
	if j.ProgressMessage == "" {
		j.ProgressMessage = fmt.Sprintf("%s started", StageLabel(processing))
	}
	j.ProgressPercent = 0
	j.ErrorMessage = ""
	j.LastHeartbeat = &now
}

// StageLabel renders a status as a human-readable progress label, for example
// "naming_assigned" becomes "Naming Assigned".
func StageLabel(status Status) string {
	if status == "" {
		return ""
	}
	parts := strings.Fields(strings.ReplaceAll(string(status), "_", " "))
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}

// SetFailed marks the job as failed with the given error message.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.ProgressPercent = 0
	j.ProgressMessage = message
	j.LastHeartbeat = nil
	j.ProgressStage = "Failed"
}
