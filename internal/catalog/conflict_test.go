package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
)

func TestResolveUpsertConflictFlagsJobForReview(t *testing.T) {
	job := &queue.Job{CanonicalName: "evergreen-bio-250001"}
	conflictErr := services.Wrap(services.ErrCatalogSyncConflict, "catalog", "upsert",
		"Concurrent writers for evergreen-bio-250001, last writer won", nil)

	resolved := resolveUpsertConflict(logging.NewNop(), job, &Episode{CanonicalName: "evergreen-bio-250001"}, conflictErr)
	if !resolved {
		t.Fatal("revision conflict should resolve last-writer-wins")
	}
	if !job.NeedsReview {
		t.Fatal("conflicted job should be flagged for review")
	}
	if !strings.Contains(job.ReviewReason, "revision race") {
		t.Fatalf("review reason = %q", job.ReviewReason)
	}
}

func TestResolveUpsertConflictPropagatesOtherErrors(t *testing.T) {
	job := &queue.Job{CanonicalName: "evergreen-bio-250001"}
	if resolveUpsertConflict(logging.NewNop(), job, &Episode{}, errors.New("disk full")) {
		t.Fatal("unrelated errors must propagate to the caller")
	}
	if job.NeedsReview {
		t.Fatal("unrelated errors must not flag review")
	}
}
