package research

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAlexSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("search"); got != "quantum computing" {
			t.Fatalf("unexpected search query %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": [{
				"title": "Quantum supremacy using a programmable superconducting processor",
				"doi": "https://doi.org/10.1038/S41586-019-1666-5",
				"publication_date": "2019-10-23",
				"authorships": [
					{"author": {"display_name": "Frank Arute"}},
					{"author": {"display_name": "Kunal Arya"}}
				],
				"abstract_inverted_index": {"promise": [1], "The": [0], "of": [2], "quantum": [3], "computers": [4]},
				"primary_location": {"landing_page_url": "https://www.nature.com/articles/s41586-019-1666-5"}
			}]
		}`))
	}))
	defer server.Close()

	provider := NewOpenAlexProvider(server.URL, server.Client())
	citations, err := provider.Search(context.Background(), "quantum computing", "", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(citations))
	}
	c := citations[0]
	if c.Source != "openalex" {
		t.Errorf("source = %q", c.Source)
	}
	if c.DOI != "10.1038/s41586-019-1666-5" {
		t.Errorf("DOI not normalized: %q", c.DOI)
	}
	if c.Abstract != "The promise of quantum computers" {
		t.Errorf("abstract not reconstructed: %q", c.Abstract)
	}
	if len(c.Authors) != 2 || c.Authors[0] != "Frank Arute" {
		t.Errorf("authors = %v", c.Authors)
	}
	if c.PublishedAt.Year() != 2019 {
		t.Errorf("published at = %v", c.PublishedAt)
	}
}

func TestOpenAlexHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := NewOpenAlexProvider(server.URL, server.Client())
	if _, err := provider.Search(context.Background(), "anything", "", 5); err == nil {
		t.Fatal("expected error for HTTP 429")
	}
}

func TestCrossrefSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("mailto"); got != "ops@example.com" {
			t.Fatalf("expected mailto parameter, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"message": {
				"items": [{
					"title": ["Attention Is All You Need"],
					"abstract": "<jats:p>The dominant sequence transduction models</jats:p>",
					"DOI": "10.5555/3295222.3295349",
					"URL": "https://doi.org/10.5555/3295222.3295349",
					"author": [{"given": "Ashish", "family": "Vaswani"}],
					"issued": {"date-parts": [[2017, 6, 12]]}
				}]
			}
		}`))
	}))
	defer server.Close()

	provider := NewCrossrefProvider(server.URL, "ops@example.com", server.Client())
	citations, err := provider.Search(context.Background(), "transformers", "", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(citations))
	}
	c := citations[0]
	if c.Abstract != "The dominant sequence transduction models" {
		t.Errorf("JATS markup not stripped: %q", c.Abstract)
	}
	if len(c.Authors) != 1 || c.Authors[0] != "Ashish Vaswani" {
		t.Errorf("authors = %v", c.Authors)
	}
	if c.PublishedAt.Month() != 6 || c.PublishedAt.Day() != 12 {
		t.Errorf("published at = %v", c.PublishedAt)
	}
}

func TestArxivSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search_query"); got != "all:black holes" {
			t.Fatalf("unexpected search_query %q", got)
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query Results</title>
  <entry>
    <id>http://arxiv.org/abs/1602.03837v1</id>
    <title>Observation of Gravitational Waves
      from a Binary Black Hole Merger</title>
    <summary>On September 14, 2015, the two detectors observed a transient signal.</summary>
    <published>2016-02-11T00:00:00Z</published>
    <author><name>B. P. Abbott</name></author>
    <link href="http://arxiv.org/abs/1602.03837v1" rel="alternate" type="text/html"/>
  </entry>
</feed>`))
	}))
	defer server.Close()

	provider := NewArxivProvider(server.URL, server.Client())
	citations, err := provider.Search(context.Background(), "black holes", "", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(citations))
	}
	c := citations[0]
	if c.Source != "arxiv" {
		t.Errorf("source = %q", c.Source)
	}
	if c.Title != "Observation of Gravitational Waves from a Binary Black Hole Merger" {
		t.Errorf("title whitespace not normalized: %q", c.Title)
	}
	if len(c.Authors) != 1 || c.Authors[0] != "B. P. Abbott" {
		t.Errorf("authors = %v", c.Authors)
	}
	if c.PublishedAt.Year() != 2016 {
		t.Errorf("published at = %v", c.PublishedAt)
	}
}

func TestStripJATSMarkup(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"<jats:p>nested <jats:italic>emphasis</jats:italic> text</jats:p>", "nested emphasis text"},
		{"  <jats:title>Abstract</jats:title>   body  ", "Abstract body"},
	}
	for _, tc := range cases {
		if got := stripJATSMarkup(tc.in); got != tc.want {
			t.Errorf("stripJATSMarkup(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
