// Package research gathers citations for a topic from scholarly indexes.
//
// Three providers are queried in parallel: OpenAlex, Crossref, and the arXiv
// Atom API. Results are deduplicated by DOI and normalized title, scored for
// relevance against the topic, and merged into a Bundle that the drafting
// stage consumes. A job fails research when the bundle falls below the
// configured citation count or quality thresholds.
package research
