package api_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/garywelz/copernicus-web-sub000/internal/api"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
)

func newTestService(t *testing.T) (*api.JobService, *queue.Store) {
	t.Helper()
	store, err := queue.OpenPath(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return api.NewJobService(store), store
}

func TestSubmitEnqueuesAcceptedJob(t *testing.T) {
	service, _ := newTestService(t)

	job, err := service.Submit(context.Background(), api.GenerationRequest{
		Topic:    "CRISPR base editing",
		Category: "biology",
		Kind:     "evergreen",
		Voices:   map[string]string{" host ": "nova"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.Status != queue.StatusAccepted {
		t.Fatalf("expected accepted status, got %s", job.Status)
	}
	if job.Token == "" {
		t.Fatal("expected a public token")
	}
	voices := job.RequestedVoices()
	if voices["HOST"] != "nova" {
		t.Fatalf("expected normalized voice role, got %v", voices)
	}
}

func TestSubmitPersistsIntakeParameters(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	job, err := service.Submit(ctx, api.GenerationRequest{
		Topic:         "Neutrino oscillation",
		Category:      "physics",
		Kind:          "evergreen",
		Expertise:     "Beginner",
		TargetMinutes: 10,
		OwnerID:       " user-42 ",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	stored, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.Expertise != "beginner" {
		t.Fatalf("expertise = %q, want beginner", stored.Expertise)
	}
	if stored.TargetMinutes != 10 {
		t.Fatalf("target minutes = %d, want 10", stored.TargetMinutes)
	}
	if stored.OwnerID != "user-42" {
		t.Fatalf("owner id = %q, want user-42", stored.OwnerID)
	}
}

func TestSubmitDefaultsExpertise(t *testing.T) {
	service, _ := newTestService(t)

	job, err := service.Submit(context.Background(), api.GenerationRequest{
		Topic:    "Prime gaps",
		Category: "mathematics",
		Kind:     "evergreen",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.Expertise != "intermediate" {
		t.Fatalf("expertise = %q, want intermediate", job.Expertise)
	}
}

func TestSubmitRejectsUnknownExpertise(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Submit(context.Background(), api.GenerationRequest{
		Topic:     "Prime gaps",
		Category:  "mathematics",
		Kind:      "evergreen",
		Expertise: "wizard",
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(services.Details(err).Message, "wizard") {
		t.Fatalf("expected message to name the bad level, got %q", services.Details(err).Message)
	}
}

func TestSubmitRejectsEmptyTopic(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Submit(context.Background(), api.GenerationRequest{
		Topic:    "   ",
		Category: "biology",
		Kind:     "evergreen",
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitRejectsUnknownCategory(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Submit(context.Background(), api.GenerationRequest{
		Topic:    "Dark matter surveys",
		Category: "astrology",
		Kind:     "news",
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(services.Details(err).Message, "astrology") {
		t.Fatalf("expected message to name the bad category, got %q", services.Details(err).Message)
	}
}

func TestSubmitRejectsUnknownKind(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Submit(context.Background(), api.GenerationRequest{
		Topic:    "Dark matter surveys",
		Category: "physics",
		Kind:     "breaking",
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitRejectsBlankVoiceMapping(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Submit(context.Background(), api.GenerationRequest{
		Topic:    "Prime gaps",
		Category: "mathematics",
		Kind:     "evergreen",
		Voices:   map[string]string{"host": "  "},
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDescribeMissingJobReturnsNil(t *testing.T) {
	service, _ := newTestService(t)

	view, err := service.Describe(context.Background(), 42)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if view != nil {
		t.Fatalf("expected nil for missing job, got %+v", view)
	}
}

func TestListReturnsNewestFirst(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	first, err := store.NewJob(ctx, queue.NewJobParams{Topic: "Topic one", Category: "physics", Kind: "evergreen"})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	second, err := store.NewJob(ctx, queue.NewJobParams{Topic: "Topic two", Category: "physics", Kind: "evergreen"})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	jobs, err := service.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != second.ID || jobs[1].ID != first.ID {
		t.Fatalf("expected newest first, got ids %d then %d", jobs[0].ID, jobs[1].ID)
	}
}
