// Package enrichcache stores enrichment stage outputs in SQLite so that
// re-processing a changed unit does not repeat expensive work.
//
// Entries are keyed by stage name plus the digest of the stage input. A
// voice note whose bytes did not change between runs hits the cache even
// when the surrounding unit was re-registered because a text entry was
// appended to the same day.
package enrichcache
