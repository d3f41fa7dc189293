// Package checksum computes content digests used for staged-unit change
// detection. Digests are SHA-256 over the whole unit; a unit is reprocessed
// exactly when its digest no longer matches the last committed one.
package checksum
