// Package enrich applies the ordered enrichment stages to staged message
// records.
//
// Each record is classified into exactly one variant, then the fixed stage
// table for that variant runs in order: link extraction, metadata or
// transcript fetch, transcription, OCR, summarization, and finally tagging.
// A stage failure is recorded in the record's provenance and the remaining
// stages still run; nothing below the unit level aborts processing.
//
// Backends are injected as single-call interfaces so tests can substitute
// stubs, and expensive outputs are cached by input digest through
// enrichcache.
package enrich
