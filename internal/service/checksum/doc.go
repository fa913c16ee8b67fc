// Package checksum emits the run's integrity manifest: a
// sha256sum-compatible listing with one entry per final output file.
// Any unreadable file aborts the run because a partial manifest would
// defeat downstream verification.
package checksum
