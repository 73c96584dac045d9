package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/garywelz/copernicus-web-sub000/internal/naming"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
)

// JobService provides validated job operations over the queue store. Both the
// daemon's HTTP handlers and the CLI's direct-store fallback use it so intake
// rules live in exactly one place.
type JobService struct {
	store *queue.Store
}

// NewJobService constructs a JobService.
func NewJobService(store *queue.Store) *JobService {
	return &JobService{store: store}
}

// Submit validates a generation request and enqueues a job in the accepted
// status. Nothing infers the kind from the topic text; unknown kinds and
// categories are rejected at intake.
func (s *JobService) Submit(ctx context.Context, req GenerationRequest) (*queue.Job, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, services.Wrap(services.ErrValidation, "intake", "submit",
			"Topic is required", nil)
	}
	category, err := naming.ParseCategory(req.Category)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "intake", "submit",
			fmt.Sprintf("Unknown category %q (expected one of %s)", req.Category, categoryList()), err)
	}
	kind, err := naming.ParseKind(req.Kind)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "intake", "submit",
			fmt.Sprintf("Unknown kind %q (expected %q or %q)", req.Kind, naming.KindEvergreen, naming.KindNews), err)
	}
	if req.TargetMinutes < 0 {
		return nil, services.Wrap(services.ErrValidation, "intake", "submit",
			"Target minutes must not be negative", nil)
	}
	expertise, err := parseExpertise(req.Expertise)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "intake", "submit",
			fmt.Sprintf("Unknown expertise level %q (expected one of %s)", req.Expertise, strings.Join(expertiseLevels, ", ")), err)
	}
	voices := make(map[string]string, len(req.Voices))
	for role, voice := range req.Voices {
		role = strings.ToUpper(strings.TrimSpace(role))
		voice = strings.TrimSpace(voice)
		if role == "" || voice == "" {
			return nil, services.Wrap(services.ErrValidation, "intake", "submit",
				"Voice overrides must map a role to a voice name", nil)
		}
		voices[role] = voice
	}

	job, err := s.store.NewJob(ctx, queue.NewJobParams{
		Topic:         topic,
		Category:      string(category),
		Kind:          string(kind),
		Expertise:     expertise,
		TargetMinutes: req.TargetMinutes,
		OwnerID:       strings.TrimSpace(req.OwnerID),
		Voices:        voices,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "intake", "enqueue",
			"Failed to enqueue generation job", err)
	}
	return job, nil
}

// expertiseLevels are the audience levels a request may target. An empty
// request level falls back to intermediate.
var expertiseLevels = []string{"beginner", "intermediate", "advanced"}

const defaultExpertise = "intermediate"

func parseExpertise(value string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return defaultExpertise, nil
	}
	for _, level := range expertiseLevels {
		if normalized == level {
			return level, nil
		}
	}
	return "", fmt.Errorf("unknown expertise level %q", value)
}

// Describe returns the transport view of one job, or nil when it does not
// exist.
func (s *JobService) Describe(ctx context.Context, id int64) (*Job, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}
	view := FromJob(job)
	return &view, nil
}

// DescribeByToken resolves a job by its public token.
func (s *JobService) DescribeByToken(ctx context.Context, token string) (*Job, error) {
	job, err := s.store.GetByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}
	view := FromJob(job)
	return &view, nil
}

// List returns jobs filtered by optional statuses, newest first.
func (s *JobService) List(ctx context.Context, statuses ...queue.Status) ([]Job, error) {
	jobs, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return SortJobsNewestFirst(FromJobs(jobs)), nil
}

// Stats returns queue counts keyed by status string.
func (s *JobService) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out, nil
}

func categoryList() string {
	categories := naming.AllCategories()
	names := make([]string, 0, len(categories))
	for _, category := range categories {
		names = append(names, string(category))
	}
	return strings.Join(names, ", ")
}
