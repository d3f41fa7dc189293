// Package artifact renders enriched units into markdown notes and persists
// them durably.
//
// Each processing pass rewrites the whole note for a unit. The sink writes
// through a temp file, fsync, and rename, which is what lets the
// orchestrator treat "artifact written" as the point of no return before
// committing state.
package artifact
