// Package process is the orchestrator that turns pending staged units into
// committed processed notes.
//
// A run registers staged units, selects candidates per contact, and then
// applies the incremental contract: a unit whose digest matches its last
// committed digest is skipped; everything else is parsed, enriched,
// rendered, durably written, and only then committed to state in a single
// transaction. Contacts process concurrently under a bounded worker pool;
// units within a contact stay in registration order.
package process
