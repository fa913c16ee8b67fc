package selector

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bestruirui/bestsub-release/internal/domain/build"
)

// TestPresetSelectsEverything ensures release mode yields the full matrix.
func TestPresetSelectsEverything(t *testing.T) {
	t.Parallel()

	matrix, err := Preset{}.Select(context.Background())
	require.NoError(t, err)
	require.Equal(t, build.Platforms(), matrix.Platforms)
	require.Equal(t, build.Architectures(), matrix.Architectures)
}

// TestInteractiveSelect parses indices, names and the "all" answer.
func TestInteractiveSelect(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	source := NewInteractive(strings.NewReader("1 3\nwindows linux-static\n"), &out)

	matrix, err := source.Select(context.Background())
	require.NoError(t, err)
	require.Equal(t, []build.Architecture{build.ArchX8664, build.ArchARM64}, matrix.Architectures)
	require.Equal(t, []build.Platform{build.PlatformWindows, build.PlatformLinuxStatic}, matrix.Platforms)

	// Menus were rendered.
	require.Contains(t, out.String(), "1) x86_64")
	require.Contains(t, out.String(), "all")
}

// TestInteractiveSelectAll expands "all" and de-duplicates repeats.
func TestInteractiveSelectAll(t *testing.T) {
	t.Parallel()

	source := NewInteractive(strings.NewReader("all\n2 2 all\n"), new(bytes.Buffer))

	matrix, err := source.Select(context.Background())
	require.NoError(t, err)
	require.Equal(t, build.Architectures(), matrix.Architectures)
	require.Len(t, matrix.Platforms, len(build.Platforms()))
	require.Equal(t, build.PlatformLinuxStatic, matrix.Platforms[0])
}

// TestInteractiveSelectRejectsUnknown covers out-of-range and unknown answers.
func TestInteractiveSelectRejectsUnknown(t *testing.T) {
	t.Parallel()

	source := NewInteractive(strings.NewReader("9\n"), new(bytes.Buffer))

	_, err := source.Select(context.Background())
	require.Error(t, err)

	source = NewInteractive(strings.NewReader("mips\n"), new(bytes.Buffer))

	_, err = source.Select(context.Background())
	require.Error(t, err)
}
