package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/garywelz/copernicus-web-sub000/internal/catalog"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
)

func newStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.OpenPath(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUpsertInsertsThenMerges(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, err := store.Upsert(ctx, catalog.Episode{
		CanonicalName: "evergreen-bio-250001",
		Title:         "CRISPR Basics",
		AudioURL:      "https://cdn.example.com/audio/evergreen-bio-250001.mp3",
		Published:     true,
	})
	if err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	if first.Revision != 1 {
		t.Fatalf("insert revision = %d, want 1", first.Revision)
	}

	second, err := store.Upsert(ctx, catalog.Episode{
		CanonicalName:   "evergreen-bio-250001",
		Title:           "CRISPR Basics, Revisited",
		DurationSeconds: 612,
		AudioURL:        first.AudioURL,
		Published:       true,
		Revision:        first.Revision,
	})
	if err != nil {
		t.Fatalf("Upsert merge: %v", err)
	}
	if second.Revision != 2 {
		t.Fatalf("merge revision = %d, want 2", second.Revision)
	}
	if second.Title != "CRISPR Basics, Revisited" || second.DurationSeconds != 612 {
		t.Fatalf("mutable fields not merged: %+v", second)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one row after two upserts, got %d", len(all))
	}
}

func TestUpsertStaleRevisionLastWriterWins(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if _, err := store.Upsert(ctx, catalog.Episode{CanonicalName: "evergreen-phys-250010", Title: "v1"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := store.Upsert(ctx, catalog.Episode{CanonicalName: "evergreen-phys-250010", Title: "v2", Revision: 1}); err != nil {
		t.Fatalf("update: %v", err)
	}

	// Third writer still holds revision 1; it wins anyway and the race is audited.
	saved, err := store.Upsert(ctx, catalog.Episode{CanonicalName: "evergreen-phys-250010", Title: "v3-stale", Revision: 1})
	if !errors.Is(err, services.ErrCatalogSyncConflict) {
		t.Fatalf("expected ErrCatalogSyncConflict, got %v", err)
	}
	if saved == nil || saved.Title != "v3-stale" {
		t.Fatalf("stale writer should still win: %+v", saved)
	}

	entries, err := store.Audit(ctx, "evergreen-phys-250010")
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	var conflicts int
	for _, entry := range entries {
		if entry.Action == catalog.AuditActionConflict {
			conflicts++
		}
	}
	if conflicts != 1 {
		t.Fatalf("expected 1 conflict audit entry, got %d (%+v)", conflicts, entries)
	}
}

func TestUpsertRequiresCanonicalName(t *testing.T) {
	store := newStore(t)
	if _, err := store.Upsert(context.Background(), catalog.Episode{Title: "nameless"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGetMissingEpisode(t *testing.T) {
	store := newStore(t)
	if _, err := store.Get(context.Background(), "evergreen-math-999999"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetPublished(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	if _, err := store.Upsert(ctx, catalog.Episode{CanonicalName: "news-chem-28032025", Title: "t", Published: true}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.SetPublished(ctx, "news-chem-28032025", false); err != nil {
		t.Fatalf("SetPublished: %v", err)
	}
	published, err := store.ListPublished(ctx)
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if len(published) != 0 {
		t.Fatalf("expected no published episodes, got %d", len(published))
	}
	if err := store.SetPublished(ctx, "news-chem-99999999", true); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown name, got %v", err)
	}
}
