// Package services defines shared utilities consumed by the enrichment stage
// handlers and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp contact names, unit keys, stage names, and
//     run identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (stage vs configuration vs transient) consistent.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services
