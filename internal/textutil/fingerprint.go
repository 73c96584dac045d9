package textutil

import (
	"math"
	"regexp"
	"strings"
)

// tokenSplitter breaks text on anything that is not a lowercase letter or
// digit. Input is lowercased before splitting.
var tokenSplitter = regexp.MustCompile(`[^a-z0-9]+`)

// Fingerprint is a term-frequency vector over a piece of text, used to
// compare citation abstracts against the requested topic.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// Tokenize lowercases text and splits it into terms, dropping anything
// shorter than three characters so stopword-ish fragments ("a", "of", "to")
// never dominate a vector.
func Tokenize(text string) []string {
	raw := tokenSplitter.Split(strings.ToLower(text), -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.TrimSpace(token)
		if len(token) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// NewFingerprint builds a fingerprint from text, or nil when the text yields
// no usable terms.
func NewFingerprint(text string) *Fingerprint {
	terms := Tokenize(text)
	if len(terms) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(terms))
	for _, term := range terms {
		counts[term]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{tokens: counts, norm: math.Sqrt(norm)}
}

// TokenCount reports the number of distinct terms in the fingerprint.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.tokens)
}

// WithIDF reweights the fingerprint by the given inverse-document-frequency
// map and recomputes the norm. Terms missing from the map keep their raw
// frequency, so a fingerprint built outside the corpus (the topic query)
// still scores against it.
func (f *Fingerprint) WithIDF(idf map[string]float64) *Fingerprint {
	if f == nil || len(idf) == 0 {
		return f
	}
	weighted := make(map[string]float64, len(f.tokens))
	var norm float64
	for term, count := range f.tokens {
		w := count
		if scale, ok := idf[term]; ok {
			w *= scale
		}
		if w == 0 {
			continue
		}
		weighted[term] = w
		norm += w * w
	}
	if len(weighted) == 0 {
		return nil
	}
	return &Fingerprint{tokens: weighted, norm: math.Sqrt(norm)}
}

// Corpus accumulates document frequencies across a batch of fingerprints so
// relevance scoring can discount terms that every citation shares.
type Corpus struct {
	docCount int
	docFreq  map[string]int
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// Add counts each of the fingerprint's distinct terms once.
func (c *Corpus) Add(fp *Fingerprint) {
	if c == nil || fp == nil {
		return
	}
	c.docCount++
	for term := range fp.tokens {
		c.docFreq[term]++
	}
}

// IDF returns smoothed inverse-document-frequency weights,
// log(1 + (N+1)/(1+df)). The smoothing keeps every weight positive, so a
// term present in all documents is discounted but never erased; small
// corpora degrade to near-uniform scaling instead of zeroing out.
func (c *Corpus) IDF() map[string]float64 {
	if c == nil || c.docCount == 0 {
		return nil
	}
	idf := make(map[string]float64, len(c.docFreq))
	n := float64(c.docCount)
	for term, df := range c.docFreq {
		idf[term] = math.Log(1 + (n+1)/(1+float64(df)))
	}
	return idf
}
