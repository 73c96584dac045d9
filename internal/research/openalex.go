package research

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const openAlexBaseURL = "https://api.openalex.org"

// OpenAlexProvider queries the OpenAlex works index.
type OpenAlexProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewOpenAlexProvider constructs the provider. baseURL is overridable for tests;
// empty selects the public API.
func NewOpenAlexProvider(baseURL string, httpClient *http.Client) *OpenAlexProvider {
	if baseURL == "" {
		baseURL = openAlexBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &OpenAlexProvider{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (p *OpenAlexProvider) Name() string { return "openalex" }

type openAlexResponse struct {
	Results []struct {
		Title           string `json:"title"`
		DOI             string `json:"doi"`
		PublicationDate string `json:"publication_date"`
		Authorships     []struct {
			Author struct {
				DisplayName string `json:"display_name"`
			} `json:"author"`
		} `json:"authorships"`
		AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
		PrimaryLocation       struct {
			LandingPageURL string `json:"landing_page_url"`
		} `json:"primary_location"`
	} `json:"results"`
}

func (p *OpenAlexProvider) Search(ctx context.Context, topic, category string, limit int) ([]Citation, error) {
	endpoint := fmt.Sprintf("%s/works?search=%s&per-page=%d&sort=relevance_score:desc",
		p.baseURL, url.QueryEscape(topic), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("openalex: new request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openalex: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openalex: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openalex: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var parsed openAlexResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("openalex: decode response: %w", err)
	}

	citations := make([]Citation, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		if strings.TrimSpace(result.Title) == "" {
			continue
		}
		citation := Citation{
			Title:    strings.TrimSpace(result.Title),
			Source:   p.Name(),
			DOI:      normalizeDOI(result.DOI),
			URL:      strings.TrimSpace(result.PrimaryLocation.LandingPageURL),
			Abstract: reconstructAbstract(result.AbstractInvertedIndex),
		}
		for _, authorship := range result.Authorships {
			if name := strings.TrimSpace(authorship.Author.DisplayName); name != "" {
				citation.Authors = append(citation.Authors, name)
			}
		}
		if published, err := time.Parse("2006-01-02", result.PublicationDate); err == nil {
			citation.PublishedAt = published
		}
		citations = append(citations, citation)
	}
	return citations, nil
}

// reconstructAbstract rebuilds plain text from OpenAlex's inverted index form,
// where each word maps to the positions it occupies.
func reconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}
	type positioned struct {
		word string
		pos  int
	}
	var words []positioned
	for word, positions := range index {
		for _, pos := range positions {
			words = append(words, positioned{word: word, pos: pos})
		}
	}
	sort.Slice(words, func(i, j int) bool { return words[i].pos < words[j].pos })
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.word
	}
	return strings.Join(parts, " ")
}

func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	return strings.ToLower(doi)
}
