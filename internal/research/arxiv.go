package research

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const arxivBaseURL = "http://export.arxiv.org/api"

// ArxivProvider queries the arXiv Atom API.
type ArxivProvider struct {
	baseURL string
	parser  *gofeed.Parser
}

// NewArxivProvider constructs the provider. baseURL is overridable for tests.
func NewArxivProvider(baseURL string, httpClient *http.Client) *ArxivProvider {
	if baseURL == "" {
		baseURL = arxivBaseURL
	}
	parser := gofeed.NewParser()
	if httpClient != nil {
		parser.Client = httpClient
	} else {
		parser.Client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ArxivProvider{baseURL: strings.TrimRight(baseURL, "/"), parser: parser}
}

func (p *ArxivProvider) Name() string { return "arxiv" }

// arxivCategories maps pipeline subject areas to arXiv category prefixes.
var arxivCategories = map[string]string{
	"biology":          "q-bio",
	"chemistry":        "physics.chem-ph",
	"computer-science": "cs",
	"mathematics":      "math",
	"physics":          "physics",
}

func (p *ArxivProvider) Search(ctx context.Context, topic, category string, limit int) ([]Citation, error) {
	query := "all:" + topic
	if prefix, ok := arxivCategories[strings.ToLower(strings.TrimSpace(category))]; ok {
		query += " AND cat:" + prefix + "*"
	}
	endpoint := fmt.Sprintf("%s/query?search_query=%s&max_results=%d&sortBy=relevance",
		p.baseURL, url.QueryEscape(query), limit)

	feed, err := p.parser.ParseURLWithContext(endpoint, ctx)
	if err != nil {
		return nil, fmt.Errorf("arxiv: fetch feed: %w", err)
	}

	citations := make([]Citation, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.Join(strings.Fields(item.Title), " ")
		if title == "" {
			continue
		}
		citation := Citation{
			Title:    title,
			Abstract: strings.Join(strings.Fields(item.Description), " "),
			Source:   p.Name(),
			URL:      strings.TrimSpace(item.Link),
		}
		for _, author := range item.Authors {
			if name := strings.TrimSpace(author.Name); name != "" {
				citation.Authors = append(citation.Authors, name)
			}
		}
		if item.PublishedParsed != nil {
			citation.PublishedAt = item.PublishedParsed.UTC()
		}
		citations = append(citations, citation)
	}
	return citations, nil
}
