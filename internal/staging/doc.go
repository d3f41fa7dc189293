// Package staging reads the daily markdown files the fetch phase writes.
//
// Each contact owns a directory of YYYY-MM-DD.md unit files; a unit holds one
// day of messages as "## HH:MM - preview" entries separated by "---" lines.
// The parser is tolerant: entries that fail to parse are skipped with a
// warning so one malformed message never blocks a whole day.
package staging
