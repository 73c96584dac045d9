package research

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
	"github.com/garywelz/copernicus-web-sub000/internal/textutil"
)

// Aggregator fans a topic out across providers and merges the results into a
// scored citation bundle.
type Aggregator struct {
	cfg       config.Research
	providers []Provider
	logger    *slog.Logger
}

// NewAggregator constructs an aggregator over the given providers.
func NewAggregator(cfg config.Research, providers []Provider, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Aggregator{cfg: cfg, providers: providers, logger: logger}
}

// Gather queries every provider, deduplicates and scores the citations, and
// returns the bundle. The error is ErrInsufficientResearch when the merged
// result falls below the configured citation or quality thresholds.
func (a *Aggregator) Gather(ctx context.Context, topic, category string) (Bundle, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Bundle{}, services.Wrap(services.ErrValidation, "research", "gather",
			"Research topic must not be empty", nil)
	}
	if len(a.providers) == 0 {
		return Bundle{}, services.Wrap(services.ErrConfiguration, "research", "gather",
			"No research providers are configured", nil)
	}

	maxParallel := a.cfg.MaxParallel
	if maxParallel < 1 {
		maxParallel = 1
	}
	providerTimeout := time.Duration(a.cfg.ProviderTimeout) * time.Second
	perProviderLimit := a.cfg.MaxCitations
	if perProviderLimit < 1 {
		perProviderLimit = 10
	}

	var (
		mu           sync.Mutex
		collected    []Citation
		providerErrs []string
	)
	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup
	for _, provider := range a.providers {
		wg.Add(1)
		go func(provider Provider) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			searchCtx := ctx
			if providerTimeout > 0 {
				var cancel context.CancelFunc
				searchCtx, cancel = context.WithTimeout(ctx, providerTimeout)
				defer cancel()
			}
			citations, err := provider.Search(searchCtx, topic, category, perProviderLimit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				providerErrs = append(providerErrs, fmt.Sprintf("%s: %v", provider.Name(), err))
				a.logger.Warn("research provider failed",
					logging.String("provider", provider.Name()),
					logging.Error(err))
				return
			}
			collected = append(collected, citations...)
		}(provider)
	}
	wg.Wait()
	sort.Strings(providerErrs)

	bundle := Bundle{
		Topic:            topic,
		Citations:        scoreCitations(topic, dedupeCitations(collected)),
		ProvidersQueried: providerNames(a.providers),
		ProviderErrors:   providerErrs,
		GatheredAt:       time.Now().UTC(),
	}
	if a.cfg.MaxCitations > 0 && len(bundle.Citations) > a.cfg.MaxCitations {
		bundle.Citations = bundle.Citations[:a.cfg.MaxCitations]
	}
	bundle.QualityScore = qualityScore(bundle.Citations)
	bundle.Themes = extractThemes(topic, bundle.Citations, maxThemes)

	if len(bundle.Citations) < a.cfg.MinCitations {
		return bundle, services.Wrap(services.ErrInsufficientResearch, "research", "gather",
			fmt.Sprintf("Found %d citations, need at least %d", len(bundle.Citations), a.cfg.MinCitations), nil)
	}
	if bundle.QualityScore < a.cfg.MinQuality {
		return bundle, services.Wrap(services.ErrInsufficientResearch, "research", "gather",
			fmt.Sprintf("Research quality %.1f is below the minimum %.1f", bundle.QualityScore, a.cfg.MinQuality), nil)
	}
	return bundle, nil
}

func providerNames(providers []Provider) []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	sort.Strings(names)
	return names
}

// nearDuplicateTitle is the cosine similarity above which two titles are
// treated as the same work even when their normalized keys differ.
const nearDuplicateTitle = 0.92

// dedupeCitations drops duplicates, matching first on DOI, then on a
// normalized title+author key, then on near-identical title fingerprints so
// wording drift between providers still collapses. The first occurrence
// wins.
func dedupeCitations(citations []Citation) []Citation {
	seenDOI := make(map[string]struct{}, len(citations))
	seenKey := make(map[string]struct{}, len(citations))
	keptTitles := make([]*textutil.Fingerprint, 0, len(citations))
	deduped := make([]Citation, 0, len(citations))
	for _, citation := range citations {
		if citation.DOI != "" {
			if _, dup := seenDOI[citation.DOI]; dup {
				continue
			}
		}
		key := citationKey(citation)
		if key != "" {
			if _, dup := seenKey[key]; dup {
				continue
			}
		}
		title := textutil.NewFingerprint(citation.Title)
		if nearDuplicate(title, keptTitles) {
			continue
		}
		if citation.DOI != "" {
			seenDOI[citation.DOI] = struct{}{}
		}
		if key != "" {
			seenKey[key] = struct{}{}
		}
		keptTitles = append(keptTitles, title)
		deduped = append(deduped, citation)
	}
	return deduped
}

// citationKey normalizes title plus first author into the exact-match
// dedupe key.
func citationKey(citation Citation) string {
	title := strings.Join(textutil.Tokenize(citation.Title), " ")
	if title == "" {
		return ""
	}
	var author string
	if len(citation.Authors) > 0 {
		author = strings.Join(textutil.Tokenize(citation.Authors[0]), " ")
	}
	return title + "|" + author
}

func nearDuplicate(title *textutil.Fingerprint, kept []*textutil.Fingerprint) bool {
	if title == nil {
		return false
	}
	for _, other := range kept {
		if textutil.CosineSimilarity(title, other) >= nearDuplicateTitle {
			return true
		}
	}
	return false
}

// scoreCitations computes each citation's relevance against the topic and
// returns the slice sorted best first. Ties keep a stable order. Terms are
// IDF-weighted across the batch, so boilerplate every provider emits
// ("study", "results", "abstract") does not inflate scores.
func scoreCitations(topic string, citations []Citation) []Citation {
	corpus := textutil.NewCorpus()
	prints := make([]*textutil.Fingerprint, len(citations))
	for i := range citations {
		text := citations[i].Title
		if citations[i].Abstract != "" {
			text += " " + citations[i].Abstract
		}
		prints[i] = textutil.NewFingerprint(text)
		corpus.Add(prints[i])
	}
	idf := corpus.IDF()
	topicPrint := textutil.NewFingerprint(topic).WithIDF(idf)
	for i := range citations {
		citations[i].Relevance = textutil.CosineSimilarity(topicPrint, prints[i].WithIDF(idf))
	}
	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].Relevance > citations[j].Relevance
	})
	return citations
}

const maxThemes = 5

// extractThemes surfaces the most frequent substantive terms across the
// citation texts, skipping the topic's own words.
func extractThemes(topic string, citations []Citation, limit int) []string {
	topicTokens := make(map[string]struct{})
	for _, token := range textutil.Tokenize(topic) {
		topicTokens[token] = struct{}{}
	}
	counts := make(map[string]int)
	for _, citation := range citations {
		seen := make(map[string]struct{})
		for _, token := range textutil.Tokenize(citation.Title + " " + citation.Abstract) {
			if _, skip := topicTokens[token]; skip {
				continue
			}
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			counts[token]++
		}
	}
	type termCount struct {
		term  string
		count int
	}
	terms := make([]termCount, 0, len(counts))
	for term, count := range counts {
		if count < 2 {
			continue
		}
		terms = append(terms, termCount{term: term, count: count})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].count != terms[j].count {
			return terms[i].count > terms[j].count
		}
		return terms[i].term < terms[j].term
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}
	themes := make([]string, len(terms))
	for i, tc := range terms {
		themes[i] = tc.term
	}
	return themes
}

// qualityScore maps citation count and mean relevance onto a 0-10 scale.
func qualityScore(citations []Citation) float64 {
	if len(citations) == 0 {
		return 0
	}
	var total float64
	for _, citation := range citations {
		total += citation.Relevance
	}
	mean := total / float64(len(citations))
	score := 0.5*float64(len(citations)) + 5*mean
	if score > 10 {
		score = 10
	}
	return score
}
