package catalog_test

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/garywelz/copernicus-web-sub000/internal/catalog"
	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/storage"
)

func newObjects(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewLocalStore(config.Storage{
		Backend:  config.StorageBackendLocal,
		LocalDir: filepath.Join(t.TempDir(), "store"),
	})
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return store
}

func feedConfig() config.Feed {
	return config.Feed{
		Title:       "Copernicus AI: Frontiers of Science",
		Link:        "https://copernicus.example.com",
		Description: "Generated science podcast",
		Language:    "en-us",
		Author:      "Copernicus AI",
	}
}

func readFeed(t *testing.T, objects storage.Store) string {
	t.Helper()
	reader, err := objects.Get(context.Background(), storage.FeedKey)
	if err != nil {
		t.Fatalf("Get feed: %v", err)
	}
	defer reader.Close()
	raw, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read feed: %v", err)
	}
	return string(raw)
}

func TestSyncPublishesAndIsIdempotent(t *testing.T) {
	store := newStore(t)
	objects := newObjects(t)
	ctx := context.Background()

	for _, name := range []string{"evergreen-bio-250001", "evergreen-phys-250002"} {
		if _, err := store.Upsert(ctx, catalog.Episode{
			CanonicalName:   name,
			Title:           "Episode " + name,
			AudioURL:        "https://cdn.example.com/audio/" + name + ".mp3",
			DurationSeconds: 600,
			Published:       true,
		}); err != nil {
			t.Fatalf("Upsert %s: %v", name, err)
		}
	}

	feed := catalog.NewFeed(feedConfig(), store, objects, nil)
	diff, err := feed.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(diff.Added) != 2 {
		t.Fatalf("first sync added = %v", diff.Added)
	}

	content := readFeed(t, objects)
	if !strings.Contains(content, "evergreen-bio-250001") || !strings.Contains(content, "itunes:duration") {
		t.Fatalf("feed missing expected content:\n%s", content)
	}

	// Second run with no state change must be a no-op.
	again, err := feed.Sync(ctx)
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if !again.Empty() {
		t.Fatalf("second sync should be empty, got %+v", again)
	}
}

func TestSyncPreservesForeignGuids(t *testing.T) {
	store := newStore(t)
	objects := newObjects(t)
	ctx := context.Background()

	existing := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Copernicus AI</title><description>d</description>
<item><title>Hand-made episode</title><guid isPermaLink="false">legacy-handmade-1</guid>
<enclosure url="https://cdn.example.com/audio/legacy.mp3" length="100" type="audio/mpeg"/></item>
<item><title>Orphan canonical</title><guid isPermaLink="false">evergreen-math-250005</guid></item>
</channel></rss>`
	if _, err := objects.Put(ctx, storage.FeedKey, strings.NewReader(existing), "application/rss+xml"); err != nil {
		t.Fatalf("seed feed: %v", err)
	}

	if _, err := store.Upsert(ctx, catalog.Episode{
		CanonicalName: "evergreen-bio-250001",
		Title:         "New episode",
		AudioURL:      "https://cdn.example.com/audio/evergreen-bio-250001.mp3",
		Published:     true,
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	feed := catalog.NewFeed(feedConfig(), store, objects, nil)
	diff, err := feed.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(diff.Added) != 1 || diff.Added[0] != "evergreen-bio-250001" {
		t.Fatalf("diff = %+v", diff)
	}
	if len(diff.Removed) != 0 {
		t.Fatalf("foreign items must not be removed: %+v", diff)
	}

	content := readFeed(t, objects)
	for _, guid := range []string{"legacy-handmade-1", "evergreen-math-250005", "evergreen-bio-250001"} {
		if !strings.Contains(content, guid) {
			t.Fatalf("guid %s missing from feed:\n%s", guid, content)
		}
	}
}

func TestSyncRemovesUnpublishedEpisode(t *testing.T) {
	store := newStore(t)
	objects := newObjects(t)
	ctx := context.Background()

	if _, err := store.Upsert(ctx, catalog.Episode{
		CanonicalName: "news-chem-28032025",
		Title:         "Breaking chemistry",
		AudioURL:      "https://cdn.example.com/audio/news-chem-28032025.mp3",
		Published:     true,
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	feed := catalog.NewFeed(feedConfig(), store, objects, nil)
	if _, err := feed.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if err := store.SetPublished(ctx, "news-chem-28032025", false); err != nil {
		t.Fatalf("SetPublished: %v", err)
	}
	diff, err := feed.Sync(ctx)
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if len(diff.Removed) != 1 || diff.Removed[0] != "news-chem-28032025" {
		t.Fatalf("diff = %+v", diff)
	}
	if strings.Contains(readFeed(t, objects), "news-chem-28032025") {
		t.Fatal("unpublished episode still in feed")
	}

	// The catalog row survives the feed removal.
	if _, err := store.Get(ctx, "news-chem-28032025"); err != nil {
		t.Fatalf("catalog row deleted by feed sync: %v", err)
	}
}
