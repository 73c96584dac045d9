package jobaccess

import (
	"context"
	"errors"

	"github.com/garywelz/copernicus-web-sub000/internal/api"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
)

// Access provides job queue operations regardless of whether a daemon is
// reachable or the CLI is working against the store directly.
type Access interface {
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, statuses []string) ([]api.Job, error)
	Describe(ctx context.Context, id int64) (*api.Job, error)
	Submit(ctx context.Context, req api.GenerationRequest) (api.SubmitResponse, error)
	Remove(ctx context.Context, ids []int64) (int64, error)
	ResetStuck(ctx context.Context) (int64, error)
	RetryAll(ctx context.Context) (int64, error)
	Retry(ctx context.Context, ids []int64) (int64, error)
	ClearAll(ctx context.Context) (int64, error)
	ClearCompleted(ctx context.Context) (int64, error)
	ClearFailed(ctx context.Context) (int64, error)
}

// NewAPIAccess returns an Access backed by the daemon HTTP API.
func NewAPIAccess(client *api.Client) Access {
	return &apiAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct store access.
func NewStoreAccess(store *queue.Store) Access {
	return &storeAccess{store: store, service: api.NewJobService(store)}
}

type apiAccess struct {
	client *api.Client
}

func (a *apiAccess) Stats(ctx context.Context) (map[string]int, error) {
	status, err := a.client.Status(ctx)
	if err != nil {
		return nil, err
	}
	return status.Workflow.QueueStats, nil
}

func (a *apiAccess) List(ctx context.Context, statuses []string) ([]api.Job, error) {
	return a.client.Jobs(ctx, statuses)
}

func (a *apiAccess) Describe(ctx context.Context, id int64) (*api.Job, error) {
	job, err := a.client.Job(ctx, id)
	if err != nil {
		var notFound *api.NotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

func (a *apiAccess) Submit(ctx context.Context, req api.GenerationRequest) (api.SubmitResponse, error) {
	return a.client.Submit(ctx, req)
}

func (a *apiAccess) Remove(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	for _, id := range ids {
		if err := a.client.Remove(ctx, id); err != nil {
			var notFound *api.NotFoundError
			if errors.As(err, &notFound) {
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}

func (a *apiAccess) ResetStuck(ctx context.Context) (int64, error) {
	return a.client.ResetStuck(ctx)
}

func (a *apiAccess) RetryAll(ctx context.Context) (int64, error) {
	return a.client.Retry(ctx, nil)
}

func (a *apiAccess) Retry(ctx context.Context, ids []int64) (int64, error) {
	return a.client.Retry(ctx, ids)
}

func (a *apiAccess) ClearAll(ctx context.Context) (int64, error) {
	return a.client.Clear(ctx, "all")
}

func (a *apiAccess) ClearCompleted(ctx context.Context) (int64, error) {
	return a.client.Clear(ctx, "completed")
}

func (a *apiAccess) ClearFailed(ctx context.Context) (int64, error) {
	return a.client.Clear(ctx, "failed")
}

type storeAccess struct {
	store   *queue.Store
	service *api.JobService
}

func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	return a.service.Stats(ctx)
}

func (a *storeAccess) List(ctx context.Context, statuses []string) ([]api.Job, error) {
	var filters []queue.Status
	for _, s := range statuses {
		if parsed, ok := queue.ParseStatus(s); ok {
			filters = append(filters, parsed)
		}
	}
	return a.service.List(ctx, filters...)
}

func (a *storeAccess) Describe(ctx context.Context, id int64) (*api.Job, error) {
	return a.service.Describe(ctx, id)
}

func (a *storeAccess) Submit(ctx context.Context, req api.GenerationRequest) (api.SubmitResponse, error) {
	job, err := a.service.Submit(ctx, req)
	if err != nil {
		return api.SubmitResponse{}, err
	}
	return api.SubmitResponse{ID: job.ID, Token: job.Token, Status: string(job.Status)}, nil
}

func (a *storeAccess) Remove(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	for _, id := range ids {
		removed, err := a.store.Remove(ctx, id)
		if err != nil {
			return count, err
		}
		if removed {
			count++
		}
	}
	return count, nil
}

func (a *storeAccess) ResetStuck(ctx context.Context) (int64, error) {
	return a.store.ResetStuckProcessing(ctx)
}

func (a *storeAccess) RetryAll(ctx context.Context) (int64, error) {
	return a.store.RetryFailed(ctx)
}

func (a *storeAccess) Retry(ctx context.Context, ids []int64) (int64, error) {
	return a.store.RetryFailed(ctx, ids...)
}

func (a *storeAccess) ClearAll(ctx context.Context) (int64, error) {
	return a.store.Clear(ctx)
}

func (a *storeAccess) ClearCompleted(ctx context.Context) (int64, error) {
	return a.store.ClearCompleted(ctx)
}

func (a *storeAccess) ClearFailed(ctx context.Context) (int64, error) {
	return a.store.ClearFailed(ctx)
}
