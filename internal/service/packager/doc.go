// Package packager turns build artifacts into distributable archives:
// each binary is bundled with the shared license and readme files into
// tar.gz (linux, darwin, android) or zip (windows), after which the
// uncompressed original is deleted. Absent artifacts are skipped so the
// archive set always mirrors what was actually built.
package packager
