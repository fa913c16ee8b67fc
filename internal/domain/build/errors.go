package build

import (
	"errors"
	"fmt"
)

// ErrToolNotFound marks a missing required external executable.
// Errors wrapping it abort the entire run; every other build-phase
// error is scoped to its matrix cell.
var ErrToolNotFound = errors.New("required tool not found")

// UnsupportedTargetError reports a (platform, architecture) combination
// outside the supported matrix. It is never retried and scoped to the
// offending cell.
type UnsupportedTargetError struct {
	Platform Platform
	Arch     Architecture
}

func (e *UnsupportedTargetError) Error() string {
	return fmt.Sprintf("unsupported target %s/%s", e.Platform, e.Arch)
}

// BuildError reports a failed external build invocation for one cell,
// carrying the tool's own diagnostic output through the wrapped error.
type BuildError struct {
	Platform Platform
	Arch     Architecture
	Tool     string
	Err      error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s/%s with %s: %v", e.Platform, e.Arch, e.Tool, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
