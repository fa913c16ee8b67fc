package selector

import (
	"context"
	"errors"

	"github.com/bestruirui/bestsub-release/internal/domain/build"
)

// Matrix is the ordered selection of platforms and architectures to
// build in one run. The cross product of both sets forms the target
// matrix.
type Matrix struct {
	Platforms     []build.Platform
	Architectures []build.Architecture
}

// Source produces the build matrix. The pipeline depends only on this
// abstraction, never on the concrete input mechanism.
type Source interface {
	Select(ctx context.Context) (Matrix, error)
}

// errEmptySelection is returned when a source yields no platforms or
// no architectures.
var errEmptySelection = errors.New("empty matrix selection")

// Preset is the release-mode source: the full matrix, no prompts.
type Preset struct{}

// Select implements Source.
func (Preset) Select(_ context.Context) (Matrix, error) {
	return Matrix{
		Platforms:     build.Platforms(),
		Architectures: build.Architectures(),
	}, nil
}

// validate rejects empty selections so the pipeline never runs an
// empty matrix silently.
func validate(m Matrix) (Matrix, error) {
	if len(m.Platforms) == 0 || len(m.Architectures) == 0 {
		return Matrix{}, errEmptySelection
	}

	return m, nil
}
