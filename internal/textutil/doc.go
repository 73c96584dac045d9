// Package textutil provides the text processing shared by the research and
// drafting stages: token fingerprints, TF-IDF weighted cosine similarity for
// citation relevance and dedupe, and spoken-text cleanup for synthesized
// scripts.
//
// Tokenization lowercases text, splits on non-alphanumeric runs, and drops
// tokens shorter than 3 characters, so fingerprints are stable across the
// punctuation and casing differences between citation providers.
package textutil
