package naming

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
)

// ArtifactLister enumerates published object keys under a prefix. The
// allocator scans the audio prefix so that episodes published by earlier
// tooling still count toward the next sequence number.
type ArtifactLister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// ReservationStore persists name reservations so two jobs racing through the
// naming stage cannot both claim the same canonical name. Reserve must fail
// with services.ErrNameAllocationConflict when the name is already taken.
type ReservationStore interface {
	ReserveName(ctx context.Context, name, jobID string) error
	ReservedNames(ctx context.Context, prefix string) ([]string, error)
}

// Allocator hands out canonical names. Allocation is serialized per category
// with a file lock, then confirmed against both the object store listing and
// the reservation table before the name is returned.
type Allocator struct {
	lister       ArtifactLister
	reservations ReservationStore
	lockDir      string
	floor        int
	now          func() time.Time
}

// NewAllocator constructs an allocator from the naming configuration.
func NewAllocator(cfg config.Naming, lister ArtifactLister, reservations ReservationStore) *Allocator {
	return &Allocator{
		lister:       lister,
		reservations: reservations,
		lockDir:      cfg.LockDir,
		floor:        cfg.EvergreenFloor,
		now:          time.Now,
	}
}

// Allocate returns the next free canonical name for the category. publishedAt
// only matters for news names, where it supplies the date stamp.
func (a *Allocator) Allocate(ctx context.Context, kind Kind, category Category, publishedAt time.Time, jobID string) (Name, error) {
	if !category.Valid() {
		return Name{}, services.Wrap(services.ErrValidation, "naming", "allocate", fmt.Sprintf("unknown category %q", category), nil)
	}

	unlock, err := a.lockCategory(category)
	if err != nil {
		return Name{}, err
	}
	defer unlock()

	// One retry: if the reservation races with a name published outside this
	// process between listing and reserving, re-list and try again.
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		name, err := a.nextFree(ctx, kind, category, publishedAt)
		if err != nil {
			return Name{}, err
		}
		if err := a.reservations.ReserveName(ctx, name.String(), jobID); err != nil {
			if errors.Is(err, services.ErrNameAllocationConflict) {
				lastErr = err
				continue
			}
			return Name{}, services.Wrap(services.ErrNameAllocationConflict, "naming", "reserve", "failed to reserve canonical name", err)
		}
		return name, nil
	}
	return Name{}, services.Wrap(services.ErrNameAllocationConflict, "naming", "allocate", "canonical name conflict persisted after retry", lastErr)
}

func (a *Allocator) lockCategory(category Category) (func(), error) {
	if a.lockDir == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(a.lockDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "naming", "lock", "failed to create lock directory", err)
	}
	lock := flock.New(filepath.Join(a.lockDir, fmt.Sprintf("naming-%s.lock", category.Code())))
	if err := lock.Lock(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "naming", "lock", "failed to acquire category lock", err)
	}
	return func() { _ = lock.Unlock() }, nil
}

// nextFree merges published artifact names with pending reservations and
// computes the next unused name for the kind and category.
func (a *Allocator) nextFree(ctx context.Context, kind Kind, category Category, publishedAt time.Time) (Name, error) {
	taken, err := a.takenNames(ctx, category)
	if err != nil {
		return Name{}, err
	}
	switch kind {
	case KindEvergreen:
		return a.nextEvergreen(category, taken), nil
	case KindNews:
		if publishedAt.IsZero() {
			publishedAt = a.now()
		}
		return nextNews(category, NewsDate(publishedAt), taken), nil
	default:
		return Name{}, services.Wrap(services.ErrValidation, "naming", "allocate", fmt.Sprintf("unknown kind %q", kind), nil)
	}
}

func (a *Allocator) takenNames(ctx context.Context, category Category) (map[string]Name, error) {
	taken := make(map[string]Name)
	collect := func(values []string) {
		for _, value := range values {
			name, err := Parse(stripArtifactKey(value))
			if err != nil || name.Category != category {
				continue
			}
			taken[name.String()] = name
		}
	}

	if a.lister != nil {
		keys, err := a.lister.List(ctx, "audio/")
		if err != nil {
			return nil, services.Wrap(services.ErrExternalService, "naming", "list", "failed to list published audio", err)
		}
		collect(keys)
	}
	if a.reservations != nil {
		reserved, err := a.reservations.ReservedNames(ctx, "")
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "naming", "reservations", "failed to list name reservations", err)
		}
		collect(reserved)
	}
	return taken, nil
}

func (a *Allocator) nextEvergreen(category Category, taken map[string]Name) Name {
	next := a.floor
	for _, name := range taken {
		if name.Kind == KindEvergreen && name.Sequence >= next {
			next = name.Sequence + 1
		}
	}
	return Name{Kind: KindEvergreen, Category: category, Sequence: next}
}

func nextNews(category Category, date string, taken map[string]Name) Name {
	base := Name{Kind: KindNews, Category: category, Date: date}
	if _, exists := taken[base.String()]; !exists {
		return base
	}
	serial := 1
	for _, name := range taken {
		if name.Kind == KindNews && name.Date == date && name.Serial >= serial {
			serial = name.Serial + 1
		}
	}
	base.Serial = serial
	return base
}

// stripArtifactKey reduces an object key like audio/evergreen-bio-250041.mp3
// to the bare canonical name so it can be parsed.
func stripArtifactKey(key string) string {
	base := key
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base
}
