package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/drafter"
	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/naming"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
	"github.com/garywelz/copernicus-web-sub000/internal/research"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
	"github.com/garywelz/copernicus-web-sub000/internal/storage"
)

// Synchronizer publishes completed jobs into the episode catalog: companion
// artifacts, the episode row, and the syndication feed.
type Synchronizer struct {
	cfg      *config.Config
	episodes *Store
	jobs     *queue.Store
	objects  storage.Store
	feed     *Feed
	logger   *slog.Logger
}

// NewSynchronizer constructs the catalog synchronizer.
func NewSynchronizer(cfg *config.Config, episodes *Store, jobs *queue.Store, objects storage.Store, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Synchronizer{
		cfg:      cfg,
		episodes: episodes,
		jobs:     jobs,
		objects:  objects,
		feed:     NewFeed(cfg.Feed, episodes, objects, logger),
		logger:   logger,
	}
}

// SyncFeed reconciles the published feed now.
func (s *Synchronizer) SyncFeed(ctx context.Context) (FeedDiff, error) {
	return s.feed.Sync(ctx)
}

// EpisodeCount returns the size of the set-union of canonical names across
// the jobs store and the episodes store. Never a per-store sum: a job whose
// episode row already exists counts once.
func (s *Synchronizer) EpisodeCount(ctx context.Context) (int, error) {
	union := make(map[string]struct{})
	jobNames, err := s.jobs.CanonicalNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("list job canonical names: %w", err)
	}
	for _, name := range jobNames {
		if naming.IsCanonical(name) {
			union[name] = struct{}{}
		}
	}
	episodeNames, err := s.episodes.CanonicalNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("list episode canonical names: %w", err)
	}
	for _, name := range episodeNames {
		union[name] = struct{}{}
	}
	return len(union), nil
}

// Publish uploads the episode's companion artifacts, upserts the catalog row
// as published, and reconciles the feed. The returned artifact URL map keys
// are audio, thumbnail, transcript, and description.
func (s *Synchronizer) Publish(ctx context.Context, job *queue.Job, script *drafter.Script) (*Episode, map[string]string, error) {
	logger := logging.WithContext(ctx, s.logger)
	name := job.CanonicalName

	artifacts := job.Artifacts()
	if artifacts == nil {
		artifacts = make(map[string]string)
	}
	if artifacts["audio"] == "" {
		return nil, nil, services.Wrap(services.ErrValidation, "catalog", "publish",
			"Job has no synthesized audio artifact", nil)
	}

	transcriptURL, err := s.objects.Put(ctx, storage.TranscriptKey(name),
		strings.NewReader(transcriptMarkdown(script)), "text/markdown")
	if err != nil {
		return nil, nil, services.Wrap(services.ErrExternalService, "catalog", "publish transcript",
			"Uploading the transcript failed", err)
	}
	artifacts["transcript"] = transcriptURL

	descriptionURL, err := s.objects.Put(ctx, storage.DescriptionKey(name),
		strings.NewReader(descriptionMarkdown(job, script)), "text/markdown")
	if err != nil {
		return nil, nil, services.Wrap(services.ErrExternalService, "catalog", "publish description",
			"Uploading the episode description failed", err)
	}
	artifacts["description"] = descriptionURL

	if thumbnailURL, err := s.publishThumbnail(ctx, job); err != nil {
		logger.Warn("thumbnail not published", logging.Error(err))
	} else if thumbnailURL != "" {
		artifacts["thumbnail"] = thumbnailURL
	}

	// Carry the revision we observed so a writer that lands between this read
	// and the upsert surfaces as a recorded conflict.
	var revision int64
	if existing, err := s.episodes.Get(ctx, name); err == nil && existing != nil {
		revision = existing.Revision
	}

	episode, err := s.episodes.Upsert(ctx, Episode{
		CanonicalName:   name,
		Title:           script.Title,
		Description:     script.Description,
		DurationSeconds: job.DurationSeconds,
		AudioURL:        artifacts["audio"],
		ThumbnailURL:    artifacts["thumbnail"],
		TranscriptURL:   artifacts["transcript"],
		DescriptionURL:  artifacts["description"],
		Published:       true,
		OwnerID:         job.OwnerID,
		Revision:        revision,
	})
	if err != nil {
		if !resolveUpsertConflict(logger, job, episode, err) {
			return nil, nil, err
		}
	}

	if _, err := s.feed.Sync(ctx); err != nil {
		return nil, nil, err
	}
	return episode, artifacts, nil
}

// resolveUpsertConflict settles a lost revision race: the last writer wins,
// the job is flagged for operator review, and publication continues. Returns
// false when the error is not a revision conflict.
func resolveUpsertConflict(logger *slog.Logger, job *queue.Job, episode *Episode, err error) bool {
	if !errors.Is(err, services.ErrCatalogSyncConflict) || episode == nil {
		return false
	}
	job.NeedsReview = true
	job.ReviewReason = fmt.Sprintf("Catalog upsert for %s lost a revision race; last writer won", job.CanonicalName)
	logging.WarnWithContext(logger, "catalog upsert conflict", string(services.KindCatalogSync),
		logging.String("canonical_name", job.CanonicalName))
	return true
}

// publishThumbnail uploads the bundled per-category cover image. A missing
// asset is reported to the caller but is not fatal to publication.
func (s *Synchronizer) publishThumbnail(ctx context.Context, job *queue.Job) (string, error) {
	category, err := naming.ParseCategory(job.Category)
	if err != nil {
		return "", err
	}
	assetPath := filepath.Join(s.cfg.Paths.AssetsDir, "thumbnails", category.Code()+".jpg")
	file, err := os.Open(assetPath)
	if err != nil {
		return "", fmt.Errorf("open thumbnail asset: %w", err)
	}
	defer file.Close()
	return s.objects.Put(ctx, storage.ThumbnailKey(job.CanonicalName), file, "image/jpeg")
}

// transcriptMarkdown renders the script as a readable speaker-labelled
// transcript.
func transcriptMarkdown(script *drafter.Script) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", script.Title)
	for _, segment := range script.Segments {
		fmt.Fprintf(&b, "**%s:** %s\n\n", segment.Role, segment.Text)
	}
	return b.String()
}

// descriptionMarkdown renders the show notes: description plus the research
// sources the episode drew on.
func descriptionMarkdown(job *queue.Job, script *drafter.Script) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n", script.Title, script.Description)
	if bundle, err := research.DecodeBundle(job.ResearchJSON); err == nil && len(bundle.Citations) > 0 {
		b.WriteString("\n## Sources\n\n")
		for _, citation := range bundle.Citations {
			if citation.URL != "" {
				fmt.Fprintf(&b, "- [%s](%s)\n", citation.Title, citation.URL)
			} else {
				fmt.Fprintf(&b, "- %s\n", citation.Title)
			}
		}
	}
	return b.String()
}
