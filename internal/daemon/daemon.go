package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"github.com/garywelz/copernicus-web-sub000/internal/catalog"
	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/notifications"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/workflow"
)

// Daemon coordinates background processing and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	catalog  *catalog.Synchronizer
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	api       *apiServer
	scheduler *cron.Cron

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	QueueDBPath  string
	LockFilePath string
	EpisodeCount int
	Workflow     workflow.StatusSummary
}

// New constructs a daemon with initialized dependencies. The catalog
// synchronizer is optional; without it feed sync endpoints report an error and
// the episode count stays zero.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager, sync *catalog.Synchronizer) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "copernicusd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		workflow: wf,
		catalog:  sync,
		notifier: notifications.NewService(cfg),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, launches the workflow manager, starts the
// HTTP API, and schedules feed reconciliation.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another copernicus daemon instance is already running")
	}

	logging.CleanupOldLogs(d.logger, d.cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     d.cfg.Paths.LogDir,
		Pattern: "*.log",
		Exclude: []string{filepath.Join(d.cfg.Paths.LogDir, logging.DaemonLogFile)},
	})

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			d.workflow.Stop()
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}

	d.startFeedScheduler()

	d.running.Store(true)
	d.logger.Info("copernicus daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.scheduler != nil {
		stopped := d.scheduler.Stop()
		<-stopped.Done()
		d.scheduler = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("copernicus daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddress reports the bound HTTP API address, or empty when the API is
// disabled or not yet listening.
func (d *Daemon) APIAddress() string {
	if d.api == nil {
		return ""
	}
	return d.api.address()
}

// SyncFeed runs a feed reconciliation immediately and publishes a
// notification when the diff is non-empty.
func (d *Daemon) SyncFeed(ctx context.Context) (catalog.FeedDiff, error) {
	if d.catalog == nil {
		return catalog.FeedDiff{}, errors.New("catalog synchronizer unavailable")
	}
	diff, err := d.catalog.SyncFeed(ctx)
	if err != nil {
		return catalog.FeedDiff{}, err
	}
	if !diff.Empty() {
		_ = d.notifier.Publish(ctx, notifications.EventFeedSync, notifications.Payload{
			"added":   len(diff.Added),
			"updated": len(diff.Updated),
			"removed": len(diff.Removed),
		})
	}
	return diff, nil
}

func (d *Daemon) startFeedScheduler() {
	if d.catalog == nil {
		return
	}
	schedule := d.cfg.Feed.SyncSchedule
	if schedule == "" {
		return
	}
	scheduler := cron.New()
	_, err := scheduler.AddFunc(schedule, func() {
		ctx := d.ctx
		if ctx == nil {
			return
		}
		diff, err := d.SyncFeed(ctx)
		if err != nil {
			d.logger.Warn("scheduled feed sync failed", logging.Error(err))
			return
		}
		if diff.Empty() {
			d.logger.Debug("scheduled feed sync found no changes")
			return
		}
		d.logger.Info("scheduled feed sync reconciled feed",
			logging.Int("added", len(diff.Added)),
			logging.Int("updated", len(diff.Updated)),
			logging.Int("removed", len(diff.Removed)))
	})
	if err != nil {
		d.logger.Warn("invalid feed sync schedule",
			logging.String("schedule", schedule), logging.Error(err))
		return
	}
	scheduler.Start()
	d.scheduler = scheduler
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		QueueDBPath:  filepath.Join(d.cfg.Paths.LogDir, "jobs.db"),
		LockFilePath: d.lockPath,
		Workflow:     d.workflow.Status(ctx),
	}
	if d.catalog != nil {
		if count, err := d.catalog.EpisodeCount(ctx); err == nil {
			status.EpisodeCount = count
		}
	}
	return status
}
