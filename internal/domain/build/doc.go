// Package build defines the release matrix domain: target platforms and
// architectures, per-cell build jobs with deterministic artifact naming,
// run-wide link-time metadata and the error taxonomy separating
// cell-scoped failures from run-fatal ones.
package build
