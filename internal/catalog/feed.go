package catalog

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/naming"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
	"github.com/garywelz/copernicus-web-sub000/internal/storage"
)

// feedItem is the reconciler's working representation of one feed entry,
// whether it came from the episodes store or the previously published feed.
type feedItem struct {
	GUID            string
	Title           string
	Description     string
	EnclosureURL    string
	EnclosureLength int64
	EnclosureType   string
	PubDate         time.Time
	DurationSeconds float64
}

// Feed reconciles the published RSS feed against the episodes store.
type Feed struct {
	cfg     config.Feed
	store   *Store
	objects storage.Store
	logger  *slog.Logger
}

// NewFeed constructs the feed reconciler.
func NewFeed(cfg config.Feed, store *Store, objects storage.Store, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Feed{cfg: cfg, store: store, objects: objects, logger: logger}
}

// Sync reconciles the feed with the published episodes and rewrites it only
// when something changed. Items whose guid is not a canonical name, or whose
// episode row is absent, are preserved; an explicitly unpublished episode's
// item is removed. Running Sync twice with no state change yields an empty
// diff.
func (f *Feed) Sync(ctx context.Context) (FeedDiff, error) {
	existing, err := f.loadExisting(ctx)
	if err != nil {
		return FeedDiff{}, err
	}

	episodes, err := f.store.ListPublished(ctx)
	if err != nil {
		return FeedDiff{}, services.Wrap(services.ErrTransient, "catalog", "sync feed",
			"Could not list published episodes", err)
	}

	desired := make(map[string]feedItem, len(episodes))
	for _, episode := range episodes {
		desired[episode.CanonicalName] = itemForEpisode(episode)
	}

	var diff FeedDiff
	merged := make([]feedItem, 0, len(desired)+len(existing))

	for _, item := range existing {
		want, isDesired := desired[item.GUID]
		if isDesired {
			if itemChanged(item, want) {
				diff.Updated = append(diff.Updated, item.GUID)
			}
			merged = append(merged, want)
			delete(desired, item.GUID)
			continue
		}
		if !naming.IsCanonical(item.GUID) {
			// Foreign guid, not ours to manage.
			merged = append(merged, item)
			continue
		}
		episode, getErr := f.store.Get(ctx, item.GUID)
		if getErr != nil || episode == nil {
			// Legacy canonical item with no catalog row; leave it alone.
			merged = append(merged, item)
			continue
		}
		if episode.Published {
			merged = append(merged, item)
			continue
		}
		// Explicitly unpublished: drop the item, keep the catalog row.
		diff.Removed = append(diff.Removed, item.GUID)
	}

	for guid, item := range desired {
		diff.Added = append(diff.Added, guid)
		merged = append(merged, item)
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Updated)

	if diff.Empty() {
		return diff, nil
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PubDate.After(merged[j].PubDate)
	})
	if err := f.write(ctx, merged); err != nil {
		return FeedDiff{}, err
	}
	f.logger.Info("feed synchronized",
		logging.Int("added", len(diff.Added)),
		logging.Int("removed", len(diff.Removed)),
		logging.Int("updated", len(diff.Updated)),
		logging.Int("item_count", len(merged)),
	)
	return diff, nil
}

func itemForEpisode(episode *Episode) feedItem {
	return feedItem{
		GUID:            episode.CanonicalName,
		Title:           episode.Title,
		Description:     episode.Description,
		EnclosureURL:    episode.AudioURL,
		EnclosureType:   "audio/mpeg",
		PubDate:         episode.CreatedAt,
		DurationSeconds: episode.DurationSeconds,
	}
}

func itemChanged(current, want feedItem) bool {
	return current.Title != want.Title ||
		current.Description != want.Description ||
		current.EnclosureURL != want.EnclosureURL
}

// loadExisting parses the previously published feed, tolerating a missing
// file on first sync.
func (f *Feed) loadExisting(ctx context.Context) ([]feedItem, error) {
	exists, err := f.objects.Exists(ctx, storage.FeedKey)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "catalog", "sync feed",
			"Could not check for the published feed", err)
	}
	if !exists {
		return nil, nil
	}
	reader, err := f.objects.Get(ctx, storage.FeedKey)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "catalog", "sync feed",
			"Could not fetch the published feed", err)
	}
	defer reader.Close()

	parsed, err := gofeed.NewParser().Parse(reader)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "catalog", "sync feed",
			"Published feed is not parseable", err)
	}
	items := make([]feedItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		fi := feedItem{
			GUID:        item.GUID,
			Title:       item.Title,
			Description: item.Description,
		}
		if fi.GUID == "" {
			fi.GUID = item.Link
		}
		if len(item.Enclosures) > 0 {
			fi.EnclosureURL = item.Enclosures[0].URL
			fi.EnclosureType = item.Enclosures[0].Type
			if length, err := strconv.ParseInt(item.Enclosures[0].Length, 10, 64); err == nil {
				fi.EnclosureLength = length
			}
		}
		if item.PublishedParsed != nil {
			fi.PubDate = *item.PublishedParsed
		}
		items = append(items, fi)
	}
	return items, nil
}

// RSS 2.0 document with the iTunes podcast extensions.
type rssDoc struct {
	XMLName  xml.Name   `xml:"rss"`
	Version  string     `xml:"version,attr"`
	ItunesNS string     `xml:"xmlns:itunes,attr"`
	Channel  rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string     `xml:"title"`
	Link        string     `xml:"link,omitempty"`
	Description string     `xml:"description"`
	Language    string     `xml:"language,omitempty"`
	Author      string     `xml:"itunes:author,omitempty"`
	Owner       *rssOwner  `xml:"itunes:owner,omitempty"`
	Image       *rssImage  `xml:"itunes:image,omitempty"`
	Items       []rssEntry `xml:"item"`
}

type rssOwner struct {
	Name  string `xml:"itunes:name,omitempty"`
	Email string `xml:"itunes:email,omitempty"`
}

type rssImage struct {
	Href string `xml:"href,attr"`
}

type rssEntry struct {
	Title       string        `xml:"title"`
	GUID        rssGUID       `xml:"guid"`
	Description string        `xml:"description,omitempty"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
	PubDate     string        `xml:"pubDate,omitempty"`
	Duration    string        `xml:"itunes:duration,omitempty"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink string `xml:"isPermaLink,attr"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

func (f *Feed) write(ctx context.Context, items []feedItem) error {
	doc := rssDoc{
		Version:  "2.0",
		ItunesNS: "http://www.itunes.com/dtds/podcast-1.0.dtd",
		Channel: rssChannel{
			Title:       f.cfg.Title,
			Link:        f.cfg.Link,
			Description: f.cfg.Description,
			Language:    f.cfg.Language,
			Author:      f.cfg.Author,
		},
	}
	if f.cfg.Author != "" || f.cfg.Email != "" {
		doc.Channel.Owner = &rssOwner{Name: f.cfg.Author, Email: f.cfg.Email}
	}
	if f.cfg.ImageURL != "" {
		doc.Channel.Image = &rssImage{Href: f.cfg.ImageURL}
	}
	for _, item := range items {
		entry := rssEntry{
			Title:       item.Title,
			GUID:        rssGUID{Value: item.GUID, IsPermaLink: "false"},
			Description: item.Description,
		}
		if item.EnclosureURL != "" {
			entry.Enclosure = &rssEnclosure{
				URL:    item.EnclosureURL,
				Length: item.EnclosureLength,
				Type:   item.EnclosureType,
			}
		}
		if !item.PubDate.IsZero() {
			entry.PubDate = item.PubDate.UTC().Format(time.RFC1123Z)
		}
		if item.DurationSeconds > 0 {
			entry.Duration = formatItunesDuration(item.DurationSeconds)
		}
		doc.Channel.Items = append(doc.Channel.Items, entry)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	encoder := xml.NewEncoder(&buf)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return services.Wrap(services.ErrTransient, "catalog", "sync feed",
			"Could not render the feed", err)
	}
	buf.WriteByte('\n')
	if _, err := f.objects.Put(ctx, storage.FeedKey, &buf, "application/rss+xml"); err != nil {
		return services.Wrap(services.ErrExternalService, "catalog", "sync feed",
			"Could not publish the feed", err)
	}
	return nil
}

func formatItunesDuration(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
