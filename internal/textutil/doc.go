// Package textutil provides small text helpers shared across the pipeline:
// URL extraction, YouTube link detection, filename sanitization, and
// human-readable formatting for durations and timestamps.
package textutil
