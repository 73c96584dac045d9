package naming_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/naming"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
)

type fakeLister struct {
	keys []string
	err  error
}

func (f *fakeLister) List(_ context.Context, _ string) ([]string, error) {
	return f.keys, f.err
}

type memoryReservations struct {
	mu    sync.Mutex
	names map[string]string
	// failFirst makes the first Reserve call conflict regardless of state,
	// simulating a name published between listing and reserving.
	failFirst bool
}

func newMemoryReservations() *memoryReservations {
	return &memoryReservations{names: make(map[string]string)}
}

func (m *memoryReservations) ReserveName(_ context.Context, name, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFirst {
		m.failFirst = false
		m.names[name] = "other-job"
		return services.ErrNameAllocationConflict
	}
	if _, taken := m.names[name]; taken {
		return services.ErrNameAllocationConflict
	}
	m.names[name] = jobID
	return nil
}

func (m *memoryReservations) ReservedNames(_ context.Context, _ string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.names))
	for name := range m.names {
		out = append(out, name)
	}
	return out, nil
}

func newTestAllocator(t *testing.T, lister naming.ArtifactLister, reservations naming.ReservationStore) *naming.Allocator {
	t.Helper()
	cfg := config.Naming{EvergreenFloor: 250000, LockDir: t.TempDir()}
	return naming.NewAllocator(cfg, lister, reservations)
}

func TestAllocateEvergreenStartsAtFloor(t *testing.T) {
	alloc := newTestAllocator(t, &fakeLister{}, newMemoryReservations())
	name, err := alloc.Allocate(context.Background(), naming.KindEvergreen, naming.CategoryBiology, time.Time{}, "job-1")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if name.String() != "evergreen-bio-250000" {
		t.Fatalf("expected floor allocation, got %q", name)
	}
}

func TestAllocateEvergreenContinuesPastPublished(t *testing.T) {
	lister := &fakeLister{keys: []string{
		"audio/evergreen-bio-250041.mp3",
		"audio/evergreen-bio-250039.mp3",
		"audio/evergreen-chem-250100.mp3",
		"audio/not-a-canonical-name.mp3",
	}}
	alloc := newTestAllocator(t, lister, newMemoryReservations())
	name, err := alloc.Allocate(context.Background(), naming.KindEvergreen, naming.CategoryBiology, time.Time{}, "job-1")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if name.String() != "evergreen-bio-250042" {
		t.Fatalf("expected sequence after highest published, got %q", name)
	}
}

func TestAllocateNeverRepeats(t *testing.T) {
	alloc := newTestAllocator(t, &fakeLister{}, newMemoryReservations())
	seen := make(map[string]bool)
	var previous int
	for i := 0; i < 10; i++ {
		name, err := alloc.Allocate(context.Background(), naming.KindEvergreen, naming.CategoryPhysics, time.Time{}, "job-1")
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		if seen[name.String()] {
			t.Fatalf("name %q allocated twice", name)
		}
		seen[name.String()] = true
		if name.Sequence <= previous && i > 0 {
			t.Fatalf("sequence not monotonic: %d after %d", name.Sequence, previous)
		}
		previous = name.Sequence
	}
}

func TestAllocateConcurrentUnique(t *testing.T) {
	alloc := newTestAllocator(t, &fakeLister{}, newMemoryReservations())

	const n = 8
	results := make(chan string, n)
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name, err := alloc.Allocate(context.Background(), naming.KindEvergreen, naming.CategoryMathematics, time.Time{}, "job")
			if err != nil {
				errs <- err
				return
			}
			results <- name.String()
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent Allocate: %v", err)
	}
	seen := make(map[string]bool)
	for name := range results {
		if seen[name] {
			t.Fatalf("name %q allocated twice", name)
		}
		seen[name] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d unique names, got %d", n, len(seen))
	}
}

func TestAllocateNewsSerials(t *testing.T) {
	published := time.Date(2025, time.March, 28, 12, 0, 0, 0, time.UTC)
	alloc := newTestAllocator(t, &fakeLister{}, newMemoryReservations())

	first, err := alloc.Allocate(context.Background(), naming.KindNews, naming.CategoryChemistry, published, "job-1")
	if err != nil {
		t.Fatalf("first Allocate: %v", err)
	}
	if first.String() != "news-chem-28032025" {
		t.Fatalf("expected undated-serial first name, got %q", first)
	}

	second, err := alloc.Allocate(context.Background(), naming.KindNews, naming.CategoryChemistry, published, "job-2")
	if err != nil {
		t.Fatalf("second Allocate: %v", err)
	}
	if second.String() != "news-chem-28032025-0001" {
		t.Fatalf("expected serial 0001 for second item, got %q", second)
	}

	third, err := alloc.Allocate(context.Background(), naming.KindNews, naming.CategoryChemistry, published, "job-3")
	if err != nil {
		t.Fatalf("third Allocate: %v", err)
	}
	if third.String() != "news-chem-28032025-0002" {
		t.Fatalf("expected serial 0002 for third item, got %q", third)
	}
}

func TestAllocateRetriesOnceOnConflict(t *testing.T) {
	reservations := newMemoryReservations()
	reservations.failFirst = true
	alloc := newTestAllocator(t, &fakeLister{}, reservations)

	name, err := alloc.Allocate(context.Background(), naming.KindEvergreen, naming.CategoryBiology, time.Time{}, "job-1")
	if err != nil {
		t.Fatalf("Allocate after conflict: %v", err)
	}
	// The conflicting reservation consumed the floor, so the retry lands one past it.
	if name.String() != "evergreen-bio-250001" {
		t.Fatalf("expected retry to pick next sequence, got %q", name)
	}
}
