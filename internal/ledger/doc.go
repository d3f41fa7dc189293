// Package ledger tracks which staged units owe processing work.
//
// Registration scans the staging tree, creates contacts on first sight, and
// marks units pending. It is digest-aware: a unit whose content digest still
// matches its last committed digest is not re-registered, so repeated scans
// of an unchanged archive are no-ops.
package ledger
