// Package catalog owns the episode store and the published syndication feed.
// Episodes are upserted idempotently by canonical name with a revision-backed
// audit trail, episode counting is the set-union of canonical names across
// the jobs and episodes stores, and feed reconciliation rewrites feed.xml
// only when the diff against the published feed is non-empty.
package catalog
