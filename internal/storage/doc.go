// Package storage publishes episode artifacts to an object store.
//
// Two backends implement the Store interface: an S3-compatible bucket for
// production and a local filesystem mirror for development. Both expose the
// same key layout (audio/, thumbnails/, transcripts/, descriptions/,
// feed.xml), so the catalog and naming packages can treat a key listing as
// the authoritative episode inventory regardless of backend.
package storage
