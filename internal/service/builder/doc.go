// Package builder executes the build matrix: one external build per
// (platform, architecture) cell for linux, linux-static and android,
// and one cross-build tool invocation per batch platform (windows,
// darwin). It provisions toolchains on demand, composes the cross
// environment and embeds run-wide link-time metadata into every binary.
package builder
