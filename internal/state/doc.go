// Package state persists per-contact fetch and process progress in a single
// JSON state file. The file is the source of truth for the incremental
// pipeline: it carries each contact's high-water fetch mark, the committed
// digest per staged unit, the pending set, and global statistics.
//
// Every mutation is written through an atomic replace (temp file, fsync,
// rename) with a last-known-good backup, and runs take an exclusive flock so
// two operators cannot race the same archive.
package state
