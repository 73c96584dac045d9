package catalog

import "time"

// Episode is one published (or publishable) catalog row, keyed by canonical
// name. Revision increments on every write and backs the upsert conflict
// detection.
type Episode struct {
	CanonicalName   string
	Title           string
	Description     string
	DurationSeconds float64
	AudioURL        string
	ThumbnailURL    string
	TranscriptURL   string
	DescriptionURL  string
	Published       bool
	OwnerID         string
	Revision        int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AuditEntry records a catalog mutation, including lost-revision races.
type AuditEntry struct {
	ID            int64
	CanonicalName string
	Action        string
	Detail        string
	CreatedAt     time.Time
}

// Audit actions recorded by the store.
const (
	AuditActionInsert   = "insert"
	AuditActionUpdate   = "update"
	AuditActionConflict = "revision_conflict"
	AuditActionPublish  = "publish"
	AuditActionRetire   = "unpublish"
)

// FeedDiff summarizes what a feed reconciliation changed.
type FeedDiff struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Updated []string `json:"updated,omitempty"`
}

// Empty reports whether the reconciliation left the feed untouched.
func (d FeedDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Updated) == 0
}
