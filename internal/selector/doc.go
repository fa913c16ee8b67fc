// Package selector produces the ordered sets of architectures and
// platforms to build: a fixed full-matrix preset for release mode and
// an interactive stdin menu. The build pipeline consumes the Source
// abstraction only.
package selector
