package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// Store manages episode and audit persistence backed by SQLite. It shares
// the job database file but owns the episodes and catalog_audit tables.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open connects the catalog store to the pipeline database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "jobs.db"))
}

// OpenPath opens the catalog store at an explicit database location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply catalog schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

const episodeColumns = "canonical_name, title, description, duration_seconds, audio_url, thumbnail_url, transcript_url, description_url, published, owner_id, revision, created_at, updated_at"

func scanEpisode(scanner interface{ Scan(dest ...any) error }) (*Episode, error) {
	var (
		canonicalName   string
		title           string
		description     sql.NullString
		durationSeconds sql.NullFloat64
		audioURL        sql.NullString
		thumbnailURL    sql.NullString
		transcriptURL   sql.NullString
		descriptionURL  sql.NullString
		published       sql.NullInt64
		ownerID         sql.NullString
		revision        int64
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)
	if err := scanner.Scan(
		&canonicalName,
		&title,
		&description,
		&durationSeconds,
		&audioURL,
		&thumbnailURL,
		&transcriptURL,
		&descriptionURL,
		&published,
		&ownerID,
		&revision,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	episode := &Episode{
		CanonicalName:   canonicalName,
		Title:           title,
		Description:     description.String,
		DurationSeconds: durationSeconds.Float64,
		AudioURL:        audioURL.String,
		ThumbnailURL:    thumbnailURL.String,
		TranscriptURL:   transcriptURL.String,
		DescriptionURL:  descriptionURL.String,
		Published:       published.Valid && published.Int64 != 0,
		OwnerID:         ownerID.String,
		Revision:        revision,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		episode.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		episode.UpdatedAt = updated
	}
	return episode, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// Get returns the episode for a canonical name, or ErrNotFound.
func (s *Store) Get(ctx context.Context, canonicalName string) (*Episode, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+episodeColumns+" FROM episodes WHERE canonical_name = ?", canonicalName)
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "get episode",
			fmt.Sprintf("No episode named %s", canonicalName), err)
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return episode, nil
}

// List returns every episode, newest first.
func (s *Store) List(ctx context.Context) ([]*Episode, error) {
	return s.list(ctx, "SELECT "+episodeColumns+" FROM episodes ORDER BY created_at DESC")
}

// ListPublished returns the published episodes, newest first. These are the
// episodes eligible for feed items.
func (s *Store) ListPublished(ctx context.Context) ([]*Episode, error) {
	return s.list(ctx, "SELECT "+episodeColumns+" FROM episodes WHERE published = 1 ORDER BY created_at DESC")
}

func (s *Store) list(ctx context.Context, query string) ([]*Episode, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()
	var episodes []*Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, episode)
	}
	return episodes, rows.Err()
}

// CanonicalNames returns every canonical name present in the episodes table.
func (s *Store) CanonicalNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT canonical_name FROM episodes")
	if err != nil {
		return nil, fmt.Errorf("list canonical names: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Upsert inserts or merges an episode keyed by canonical name. Same-name
// writers are serialized by a transaction; a writer holding a stale revision
// still wins (last-writer-wins) but the race is recorded in the audit table
// and reported via the returned conflict error alongside the saved episode.
func (s *Store) Upsert(ctx context.Context, episode Episode) (*Episode, error) {
	if strings.TrimSpace(episode.CanonicalName) == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "upsert",
			"Episode requires a canonical name", nil)
	}

	var (
		saved    *Episode
		conflict bool
	)
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		now := time.Now().UTC().Format(time.RFC3339Nano)
		row := tx.QueryRowContext(ctx,
			"SELECT revision, created_at, published FROM episodes WHERE canonical_name = ?", episode.CanonicalName)
		var (
			currentRevision int64
			createdRaw      string
			published       int
		)
		scanErr := row.Scan(&currentRevision, &createdRaw, &published)
		switch {
		case errors.Is(scanErr, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO episodes (`+episodeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
				episode.CanonicalName,
				episode.Title,
				nullableString(episode.Description),
				episode.DurationSeconds,
				nullableString(episode.AudioURL),
				nullableString(episode.ThumbnailURL),
				nullableString(episode.TranscriptURL),
				nullableString(episode.DescriptionURL),
				boolToInt(episode.Published),
				nullableString(episode.OwnerID),
				now,
				now,
			); err != nil {
				return fmt.Errorf("insert episode: %w", err)
			}
			if err := s.auditTx(ctx, tx, episode.CanonicalName, AuditActionInsert, episode.Title, now); err != nil {
				return err
			}
		case scanErr != nil:
			return fmt.Errorf("read episode revision: %w", scanErr)
		default:
			conflict = episode.Revision != 0 && episode.Revision != currentRevision
			if _, err := tx.ExecContext(ctx,
				`UPDATE episodes SET title = ?, description = ?, duration_seconds = ?, audio_url = ?,
					thumbnail_url = ?, transcript_url = ?, description_url = ?, published = ?, owner_id = ?,
					revision = revision + 1, updated_at = ?
				 WHERE canonical_name = ?`,
				episode.Title,
				nullableString(episode.Description),
				episode.DurationSeconds,
				nullableString(episode.AudioURL),
				nullableString(episode.ThumbnailURL),
				nullableString(episode.TranscriptURL),
				nullableString(episode.DescriptionURL),
				boolToInt(episode.Published),
				nullableString(episode.OwnerID),
				now,
				episode.CanonicalName,
			); err != nil {
				return fmt.Errorf("update episode: %w", err)
			}
			action := AuditActionUpdate
			detail := episode.Title
			if conflict {
				action = AuditActionConflict
				detail = fmt.Sprintf("writer held revision %d, current %d", episode.Revision, currentRevision)
			}
			if err := s.auditTx(ctx, tx, episode.CanonicalName, action, detail, now); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}

	saved, err = s.Get(ctx, episode.CanonicalName)
	if err != nil {
		return nil, err
	}
	if conflict {
		return saved, services.Wrap(services.ErrCatalogSyncConflict, "catalog", "upsert",
			fmt.Sprintf("Concurrent writers for %s, last writer won", episode.CanonicalName), nil)
	}
	return saved, nil
}

// SetPublished flips the published flag without touching other fields.
func (s *Store) SetPublished(ctx context.Context, canonicalName string, published bool) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			"UPDATE episodes SET published = ?, revision = revision + 1, updated_at = ? WHERE canonical_name = ?",
			boolToInt(published), now, canonicalName)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return services.Wrap(services.ErrNotFound, "catalog", "set published",
				fmt.Sprintf("No episode named %s", canonicalName), nil)
		}
		action := AuditActionPublish
		if !published {
			action = AuditActionRetire
		}
		_, err = s.db.ExecContext(ctx,
			"INSERT INTO catalog_audit (canonical_name, action, detail, created_at) VALUES (?, ?, ?, ?)",
			canonicalName, action, "", now)
		return err
	})
}

// Audit returns the audit trail for one canonical name, oldest first.
func (s *Store) Audit(ctx context.Context, canonicalName string) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, canonical_name, action, detail, created_at FROM catalog_audit WHERE canonical_name = ? ORDER BY id",
		canonicalName)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()
	var entries []AuditEntry
	for rows.Next() {
		var (
			entry      AuditEntry
			detail     sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&entry.ID, &entry.CanonicalName, &entry.Action, &detail, &createdRaw); err != nil {
			return nil, err
		}
		entry.Detail = detail.String
		if created, err := parseTimeString(createdRaw); err == nil {
			entry.CreatedAt = created
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) auditTx(ctx context.Context, tx *sql.Tx, canonicalName, action, detail, now string) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO catalog_audit (canonical_name, action, detail, created_at) VALUES (?, ?, ?, ?)",
		canonicalName, action, nullableString(detail), now); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}
