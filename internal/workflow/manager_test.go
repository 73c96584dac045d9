package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/notifications"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
	"github.com/garywelz/copernicus-web-sub000/internal/stage"
	"github.com/garywelz/copernicus-web-sub000/internal/workflow"
)

type stubStage struct {
	name    string
	execute func(ctx context.Context, job *queue.Job) error

	mu    sync.Mutex
	calls int
}

func (s *stubStage) Prepare(ctx context.Context, job *queue.Job) error { return nil }

func (s *stubStage) Execute(ctx context.Context, job *queue.Job) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.execute != nil {
		return s.execute(ctx, job)
	}
	return nil
}

func (s *stubStage) HealthCheck(ctx context.Context) stage.Health { return stage.Healthy(s.name) }

func (s *stubStage) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordedEvent struct {
	event   notifications.Event
	payload notifications.Payload
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingNotifier) Publish(ctx context.Context, event notifications.Event, payload notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{event: event, payload: payload})
	return nil
}

func (r *recordingNotifier) eventsOf(event notifications.Event) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []recordedEvent
	for _, recorded := range r.events {
		if recorded.event == event {
			matched = append(matched, recorded)
		}
	}
	return matched
}

func managerFixture(t *testing.T) (*config.Config, *queue.Store) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Workflow.Workers = 2
	cfg.Workflow.QueuePollInterval = 1

	store, err := queue.OpenPath(filepath.Join(cfg.Paths.LogDir, "jobs.db"))
	if err != nil {
		t.Fatalf("queue.OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return &cfg, store
}

func fullStageSet(stages map[string]*stubStage) workflow.StageSet {
	return workflow.StageSet{
		Research:  stages["research"],
		Draft:     stages["draft"],
		Naming:    stages["naming"],
		Synthesis: stages["synthesis"],
		Catalog:   stages["catalog"],
	}
}

func passthroughStages() map[string]*stubStage {
	stages := make(map[string]*stubStage)
	for _, name := range []string{"research", "draft", "naming", "synthesis", "catalog"} {
		stages[name] = &stubStage{name: name}
	}
	return stages
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if job.Status == want {
			return job
		}
		if job.Status == queue.StatusFailed && want != queue.StatusFailed {
			t.Fatalf("job failed while waiting for %s: %s", want, job.ErrorMessage)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %d never reached %s", id, want)
	return nil
}

func TestManagerRunsJobThroughPipeline(t *testing.T) {
	cfg, store := managerFixture(t)
	stages := passthroughStages()
	notifier := &recordingNotifier{}

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	manager.ConfigureStages(fullStageSet(stages))

	job, err := store.NewJob(context.Background(), queue.NewJobParams{Topic: "CRISPR gene editing", Category: "biology", Kind: "evergreen"})
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	final := waitForStatus(t, store, job.ID, queue.StatusCompleted)
	if final.ErrorMessage != "" {
		t.Fatalf("completed job carries error: %s", final.ErrorMessage)
	}
	if final.LastHeartbeat != nil {
		t.Fatal("completed job still has a heartbeat")
	}
	for name, stg := range stages {
		if stg.callCount() != 1 {
			t.Fatalf("stage %s executed %d times, want 1", name, stg.callCount())
		}
	}
	if completed := notifier.eventsOf(notifications.EventJobCompleted); len(completed) != 1 {
		t.Fatalf("expected 1 completion event, got %d", len(completed))
	}
}

func TestManagerFailureIsTerminalAndNotifies(t *testing.T) {
	cfg, store := managerFixture(t)
	stages := passthroughStages()
	stages["draft"].execute = func(ctx context.Context, job *queue.Job) error {
		return services.Wrap(services.ErrDraftGenerationFailed, "draft", "complete",
			"All drafting backends exhausted", errors.New("503 from backend"))
	}
	notifier := &recordingNotifier{}

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	manager.ConfigureStages(fullStageSet(stages))

	job, err := store.NewJob(context.Background(), queue.NewJobParams{Topic: "quantum computing", Category: "physics", Kind: "evergreen"})
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	final := waitForStatus(t, store, job.ID, queue.StatusFailed)
	if !strings.Contains(final.ErrorMessage, "drafting backends exhausted") {
		t.Fatalf("error message = %q", final.ErrorMessage)
	}
	if stages["naming"].callCount() != 0 || stages["synthesis"].callCount() != 0 {
		t.Fatal("stages after the failure still ran")
	}

	failures := notifier.eventsOf(notifications.EventJobFailed)
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure event, got %d", len(failures))
	}
	if failures[0].payload["stage"] != "draft" {
		t.Fatalf("failure payload = %+v", failures[0].payload)
	}
}

func TestManagerFailureReleasesNameReservation(t *testing.T) {
	cfg, store := managerFixture(t)
	stages := passthroughStages()
	stages["naming"].execute = func(ctx context.Context, job *queue.Job) error {
		job.CanonicalName = "evergreen-phys-250001"
		return store.ReserveName(ctx, job.CanonicalName, job.Token)
	}
	stages["synthesis"].execute = func(ctx context.Context, job *queue.Job) error {
		return services.Wrap(services.ErrSynthesisSegmentFailed, "synthesis", "segment",
			"Voice backend rejected the segment", nil)
	}

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	manager.ConfigureStages(fullStageSet(stages))

	job, err := store.NewJob(context.Background(), queue.NewJobParams{Topic: "exoplanet atmospheres", Category: "physics", Kind: "evergreen"})
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	final := waitForStatus(t, store, job.ID, queue.StatusFailed)
	if final.CanonicalName != "" {
		t.Fatalf("failed job kept canonical name %q", final.CanonicalName)
	}
	reserved, err := store.ReservedNames(context.Background(), "")
	if err != nil {
		t.Fatalf("ReservedNames: %v", err)
	}
	if len(reserved) != 0 {
		t.Fatalf("reservation not released: %v", reserved)
	}
}

func TestManagerStageTimeoutFailsJob(t *testing.T) {
	cfg, store := managerFixture(t)
	cfg.Workflow.ResearchTimeout = 1
	stages := passthroughStages()
	stages["research"].execute = func(ctx context.Context, job *queue.Job) error {
		<-ctx.Done()
		return ctx.Err()
	}

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	manager.ConfigureStages(fullStageSet(stages))

	job, err := store.NewJob(context.Background(), queue.NewJobParams{Topic: "slow topic", Category: "physics", Kind: "evergreen"})
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	final := waitForStatus(t, store, job.ID, queue.StatusFailed)
	if !strings.Contains(strings.ToLower(final.ErrorMessage), "timed out") {
		t.Fatalf("timeout message = %q", final.ErrorMessage)
	}
}

func TestManagerProcessesJobsConcurrently(t *testing.T) {
	cfg, store := managerFixture(t)
	stages := passthroughStages()

	var mu sync.Mutex
	active, peak := 0, 0
	stages["research"].execute = func(ctx context.Context, job *queue.Job) error {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		time.Sleep(200 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return nil
	}

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	manager.ConfigureStages(fullStageSet(stages))

	ids := make([]int64, 0, 3)
	for i := 0; i < 3; i++ {
		job, err := store.NewJob(context.Background(), queue.NewJobParams{Topic: fmt.Sprintf("topic %d", i), Category: "biology", Kind: "evergreen"})
		if err != nil {
			t.Fatalf("NewJob: %v", err)
		}
		ids = append(ids, job.ID)
	}

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	for _, id := range ids {
		waitForStatus(t, store, id, queue.StatusCompleted)
	}
	mu.Lock()
	defer mu.Unlock()
	if peak < 2 {
		t.Fatalf("peak concurrent research executions = %d, want >= 2", peak)
	}
}

func TestStartWithoutStagesFails(t *testing.T) {
	cfg, store := managerFixture(t)
	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	if err := manager.Start(context.Background()); err == nil {
		t.Fatal("expected error when no stages are configured")
	}
}

func TestStatusReportsStageHealth(t *testing.T) {
	cfg, store := managerFixture(t)
	stages := passthroughStages()
	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	manager.ConfigureStages(fullStageSet(stages))

	summary := manager.Status(context.Background())
	if summary.Running {
		t.Fatal("manager reported running before Start")
	}
	if len(summary.StageHealth) != 5 {
		t.Fatalf("stage health entries = %d, want 5", len(summary.StageHealth))
	}
	for name, health := range summary.StageHealth {
		if !health.Ready {
			t.Fatalf("stage %s unexpectedly unhealthy: %s", name, health.Detail)
		}
	}
}
