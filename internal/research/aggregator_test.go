package research

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
)

type stubProvider struct {
	name      string
	citations []Citation
	err       error
	delay     time.Duration
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(ctx context.Context, topic, category string, limit int) ([]Citation, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.citations, nil
}

func testResearchConfig() config.Research {
	return config.Research{
		MinCitations:    2,
		MinQuality:      1.0,
		MaxCitations:    10,
		ProviderTimeout: 5,
		MaxParallel:     3,
	}
}

func TestGatherMergesProviders(t *testing.T) {
	providers := []Provider{
		&stubProvider{name: "alpha", citations: []Citation{
			{Title: "Quantum error correction with surface codes", Abstract: "surface codes for quantum error correction", Source: "alpha"},
		}},
		&stubProvider{name: "beta", citations: []Citation{
			{Title: "Topological quantum error correction", Abstract: "quantum error correction on a lattice", Source: "beta"},
		}},
	}
	agg := NewAggregator(testResearchConfig(), providers, nil)
	bundle, err := agg.Gather(context.Background(), "quantum error correction", "physics")
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(bundle.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(bundle.Citations))
	}
	if len(bundle.ProvidersQueried) != 2 {
		t.Fatalf("expected 2 providers queried, got %v", bundle.ProvidersQueried)
	}
	if bundle.QualityScore <= 0 {
		t.Fatalf("expected positive quality score, got %f", bundle.QualityScore)
	}
	for _, citation := range bundle.Citations {
		if citation.Relevance <= 0 {
			t.Fatalf("citation %q has no relevance score", citation.Title)
		}
	}
}

func TestGatherDeduplicatesByDOI(t *testing.T) {
	shared := Citation{Title: "A survey of CRISPR delivery", DOI: "10.1000/xyz123", Abstract: "CRISPR delivery mechanisms"}
	other := shared
	other.Title = "A Survey of CRISPR Delivery" // different casing, same work
	providers := []Provider{
		&stubProvider{name: "alpha", citations: []Citation{shared, {Title: "CRISPR base editing advances", Abstract: "base editing with CRISPR"}}},
		&stubProvider{name: "beta", citations: []Citation{other}},
	}
	agg := NewAggregator(testResearchConfig(), providers, nil)
	bundle, err := agg.Gather(context.Background(), "CRISPR delivery", "physics")
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(bundle.Citations) != 2 {
		t.Fatalf("expected duplicates removed, got %d citations", len(bundle.Citations))
	}
}

func TestGatherDeduplicatesByTitle(t *testing.T) {
	providers := []Provider{
		&stubProvider{name: "alpha", citations: []Citation{
			{Title: "Dark matter halos in dwarf galaxies", Abstract: "dark matter"},
		}},
		&stubProvider{name: "beta", citations: []Citation{
			{Title: "Dark Matter Halos in Dwarf Galaxies!", Abstract: "halos"},
			{Title: "Dwarf galaxy rotation curves and dark matter", Abstract: "rotation curves"},
		}},
	}
	agg := NewAggregator(testResearchConfig(), providers, nil)
	bundle, err := agg.Gather(context.Background(), "dark matter dwarf galaxies", "physics")
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(bundle.Citations) != 2 {
		t.Fatalf("expected title duplicates removed, got %d citations", len(bundle.Citations))
	}
}

func TestGatherCollapsesNearDuplicateTitles(t *testing.T) {
	providers := []Provider{
		&stubProvider{name: "alpha", citations: []Citation{
			{Title: "Deep learning for protein structure prediction", Authors: []string{"J. Jumper"}},
			{Title: "Neutrino mass ordering from oscillation data", Authors: []string{"A. Herrera"}},
		}},
		&stubProvider{name: "beta", citations: []Citation{
			// Same work, different author formatting, so the exact key differs.
			{Title: "Deep Learning for Protein Structure Prediction", Authors: []string{"John Jumper"}},
		}},
	}
	agg := NewAggregator(testResearchConfig(), providers, nil)
	bundle, err := agg.Gather(context.Background(), "protein structure prediction", "biology")
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(bundle.Citations) != 2 {
		t.Fatalf("expected near-duplicate titles collapsed, got %d citations", len(bundle.Citations))
	}
}

func TestGatherInsufficientCitations(t *testing.T) {
	providers := []Provider{
		&stubProvider{name: "alpha", citations: []Citation{
			{Title: "Lonely result on prime gaps", Abstract: "prime gaps"},
		}},
	}
	agg := NewAggregator(testResearchConfig(), providers, nil)
	_, err := agg.Gather(context.Background(), "prime gaps", "physics")
	if !errors.Is(err, services.ErrInsufficientResearch) {
		t.Fatalf("expected ErrInsufficientResearch, got %v", err)
	}
}

func TestGatherBelowQualityThreshold(t *testing.T) {
	cfg := testResearchConfig()
	cfg.MinQuality = 9.5
	providers := []Provider{
		&stubProvider{name: "alpha", citations: []Citation{
			{Title: "Unrelated cooking techniques", Abstract: "sourdough starters"},
			{Title: "Another unrelated result", Abstract: "knitting patterns"},
		}},
	}
	agg := NewAggregator(cfg, providers, nil)
	_, err := agg.Gather(context.Background(), "neutrino oscillation", "physics")
	if !errors.Is(err, services.ErrInsufficientResearch) {
		t.Fatalf("expected ErrInsufficientResearch, got %v", err)
	}
}

func TestGatherRecordsProviderErrors(t *testing.T) {
	providers := []Provider{
		&stubProvider{name: "alpha", err: fmt.Errorf("upstream down")},
		&stubProvider{name: "beta", citations: []Citation{
			{Title: "Graph neural networks for molecules", Abstract: "graph neural networks"},
			{Title: "Molecular property prediction with graph networks", Abstract: "graph networks molecules"},
		}},
	}
	agg := NewAggregator(testResearchConfig(), providers, nil)
	bundle, err := agg.Gather(context.Background(), "graph neural networks molecules", "physics")
	if err != nil {
		t.Fatalf("Gather should tolerate one failed provider: %v", err)
	}
	if len(bundle.ProviderErrors) != 1 {
		t.Fatalf("expected 1 provider error, got %v", bundle.ProviderErrors)
	}
}

func TestGatherTrimsToMaxCitations(t *testing.T) {
	cfg := testResearchConfig()
	cfg.MaxCitations = 3
	aspects := []string{
		"chaperone pathways", "misfolding disease", "energy landscapes",
		"structure prediction", "membrane insertion", "aggregation kinetics",
		"folding intermediates", "single molecule imaging",
	}
	var citations []Citation
	for i, aspect := range aspects {
		citations = append(citations, Citation{
			Title:    fmt.Sprintf("Protein folding and %s", aspect),
			Abstract: fmt.Sprintf("study %d of protein folding", i),
		})
	}
	providers := []Provider{&stubProvider{name: "alpha", citations: citations}}
	agg := NewAggregator(cfg, providers, nil)
	bundle, err := agg.Gather(context.Background(), "protein folding", "physics")
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(bundle.Citations) != 3 {
		t.Fatalf("expected trim to 3 citations, got %d", len(bundle.Citations))
	}
}

func TestGatherSortsByRelevance(t *testing.T) {
	providers := []Provider{
		&stubProvider{name: "alpha", citations: []Citation{
			{Title: "Completely unrelated subject matter", Abstract: "gardening tips"},
			{Title: "Gravitational wave detection with interferometers", Abstract: "gravitational wave detection"},
		}},
	}
	agg := NewAggregator(testResearchConfig(), providers, nil)
	bundle, err := agg.Gather(context.Background(), "gravitational wave detection", "physics")
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(bundle.Citations) < 2 {
		t.Fatalf("expected 2 citations, got %d", len(bundle.Citations))
	}
	if bundle.Citations[0].Relevance < bundle.Citations[1].Relevance {
		t.Fatalf("citations not sorted by relevance: %f then %f",
			bundle.Citations[0].Relevance, bundle.Citations[1].Relevance)
	}
	if bundle.Citations[0].Title != "Gravitational wave detection with interferometers" {
		t.Fatalf("expected the matching citation first, got %q", bundle.Citations[0].Title)
	}
}

func TestGatherEmptyTopic(t *testing.T) {
	agg := NewAggregator(testResearchConfig(), []Provider{&stubProvider{name: "alpha"}}, nil)
	if _, err := agg.Gather(context.Background(), "  ", "physics"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestBundleEncodeRoundTrip(t *testing.T) {
	bundle := Bundle{
		Topic: "test topic",
		Citations: []Citation{
			{Title: "First", Source: "alpha", Relevance: 0.5},
		},
		QualityScore: 3.0,
		GatheredAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	encoded, err := bundle.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := DecodeBundle(encoded)
	if err != nil {
		t.Fatalf("DecodeBundle: %v", err)
	}
	if decoded.Topic != bundle.Topic || len(decoded.Citations) != 1 || decoded.QualityScore != 3.0 {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}
