package research

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const crossrefBaseURL = "https://api.crossref.org"

// CrossrefProvider queries the Crossref works index.
type CrossrefProvider struct {
	baseURL    string
	httpClient *http.Client
	mailto     string
}

// NewCrossrefProvider constructs the provider. mailto joins the polite pool
// when set; baseURL is overridable for tests.
func NewCrossrefProvider(baseURL, mailto string, httpClient *http.Client) *CrossrefProvider {
	if baseURL == "" {
		baseURL = crossrefBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &CrossrefProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		mailto:     strings.TrimSpace(mailto),
	}
}

func (p *CrossrefProvider) Name() string { return "crossref" }

type crossrefResponse struct {
	Message struct {
		Items []struct {
			Title    []string `json:"title"`
			Abstract string   `json:"abstract"`
			DOI      string   `json:"DOI"`
			URL      string   `json:"URL"`
			Author   []struct {
				Given  string `json:"given"`
				Family string `json:"family"`
			} `json:"author"`
			Issued struct {
				DateParts [][]int `json:"date-parts"`
			} `json:"issued"`
		} `json:"items"`
	} `json:"message"`
}

func (p *CrossrefProvider) Search(ctx context.Context, topic, category string, limit int) ([]Citation, error) {
	endpoint := fmt.Sprintf("%s/works?query=%s&rows=%d", p.baseURL, url.QueryEscape(topic), limit)
	if p.mailto != "" {
		endpoint += "&mailto=" + url.QueryEscape(p.mailto)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("crossref: new request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crossref: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("crossref: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crossref: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var parsed crossrefResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("crossref: decode response: %w", err)
	}

	citations := make([]Citation, 0, len(parsed.Message.Items))
	for _, item := range parsed.Message.Items {
		if len(item.Title) == 0 || strings.TrimSpace(item.Title[0]) == "" {
			continue
		}
		citation := Citation{
			Title:    strings.TrimSpace(item.Title[0]),
			Abstract: stripJATSMarkup(item.Abstract),
			Source:   p.Name(),
			DOI:      normalizeDOI(item.DOI),
			URL:      strings.TrimSpace(item.URL),
		}
		for _, author := range item.Author {
			name := strings.TrimSpace(strings.TrimSpace(author.Given) + " " + strings.TrimSpace(author.Family))
			if name != "" {
				citation.Authors = append(citation.Authors, name)
			}
		}
		if len(item.Issued.DateParts) > 0 && len(item.Issued.DateParts[0]) > 0 {
			parts := item.Issued.DateParts[0]
			year, month, day := parts[0], 1, 1
			if len(parts) > 1 {
				month = parts[1]
			}
			if len(parts) > 2 {
				day = parts[2]
			}
			citation.PublishedAt = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		}
		citations = append(citations, citation)
	}
	return citations, nil
}

// stripJATSMarkup removes the XML tags Crossref embeds in abstract fields.
func stripJATSMarkup(abstract string) string {
	abstract = strings.TrimSpace(abstract)
	if abstract == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(abstract))
	inTag := false
	for _, r := range abstract {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
