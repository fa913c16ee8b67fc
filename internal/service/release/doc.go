// Package release is the top-level driver of the build pipeline. It
// resolves run-wide metadata once, walks the selected matrix through
// the strictly ordered phases (provision + build, package, checksum)
// and records one result per cell, distinguishing cell-scoped skips
// from run-fatal tool failures.
package release
