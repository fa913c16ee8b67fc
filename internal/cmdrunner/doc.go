// Package cmdrunner wraps os/exec behind a small interface so the build
// pipeline can invoke external tools (compilers, the cross-build tool,
// the executable packer) and tests can substitute a stub.
// Failures carry the tool's combined output.
package cmdrunner
