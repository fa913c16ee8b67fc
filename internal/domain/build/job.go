package build

import (
	"fmt"
	"strings"
)

// Metadata carries the link-time constants embedded into every binary
// of a run. It is resolved once per run and must be identical for every
// matrix cell.
type Metadata struct {
	// Version is the semantic version taken from the most recent tag.
	Version string
	// BuildTime is the build timestamp rendered in a fixed time zone.
	BuildTime string
	// Author identifies the release author.
	Author string
}

// LDFlags renders the linker flags for one build, including symbol
// stripping and the metadata injection. Static builds additionally
// force external linking with a fully static C library.
func (m Metadata) LDFlags(static bool) string {
	var b strings.Builder

	b.WriteString("-s -w")
	fmt.Fprintf(&b, " -X main.Version=%s", m.Version)
	fmt.Fprintf(&b, " -X 'main.BuildTime=%s'", m.BuildTime)
	fmt.Fprintf(&b, " -X main.Author=%s", m.Author)

	if static {
		b.WriteString(" -linkmode external -extldflags '-static'")
	}

	return b.String()
}

// Job is a single (platform, architecture) cell of the build matrix.
type Job struct {
	// Platform and Arch locate the cell.
	Platform Platform
	Arch     Architecture
	// Meta is the run-wide link-time metadata.
	Meta Metadata
}

// OutputName derives the artifact file name for the job
// deterministically from the application name, the platform segment,
// the architecture and the platform's executable extension.
func (j Job) OutputName(app string) string {
	return fmt.Sprintf("%s-%s-%s%s", app, j.Platform.NameSegment(), j.Arch, j.Platform.ExecutableExtension())
}

// Artifact is one binary produced by a build job. The executor owns it
// until packaging takes over and deletes the uncompressed original.
type Artifact struct {
	// Path is the absolute or output-relative location of the binary.
	Path string
	// Platform and Arch identify the producing cell.
	Platform Platform
	Arch     Architecture
	// Packed marks an executable-packer variant of a Windows binary.
	Packed bool
}

// ArchiveName derives the archive file name for the artifact: the
// binary name without its executable extension plus the
// platform-conventional archive extension.
func (a Artifact) ArchiveName(base string) string {
	return strings.TrimSuffix(base, ".exe") + "." + string(a.Platform.ArchiveFormat())
}
