package build

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseArchitecture covers canonical and Go toolchain spellings.
func TestParseArchitecture(t *testing.T) {
	t.Parallel()

	cases := map[string]Architecture{
		"x86_64":  ArchX8664,
		"amd64":   ArchX8664,
		"x86":     ArchX86,
		"386":     ArchX86,
		"arm64":   ArchARM64,
		"aarch64": ArchARM64,
		"arm":     ArchARM,
	}
	for input, want := range cases {
		got, ok := ParseArchitecture(input)
		require.True(t, ok, input)
		require.Equal(t, want, got)
	}

	_, ok := ParseArchitecture("mips")
	require.False(t, ok)
}

// TestGoArch verifies the GOARCH mapping.
func TestGoArch(t *testing.T) {
	t.Parallel()

	require.Equal(t, "amd64", ArchX8664.GoArch())
	require.Equal(t, "386", ArchX86.GoArch())
	require.Equal(t, "arm64", ArchARM64.GoArch())
	require.Equal(t, "arm", ArchARM.GoArch())
}

// TestPlatformProperties checks GOOS, archive format, extension and batch flags.
func TestPlatformProperties(t *testing.T) {
	t.Parallel()

	require.Equal(t, "linux", PlatformLinuxStatic.GOOS())
	require.Equal(t, "linux-musl", PlatformLinuxStatic.NameSegment())
	require.Equal(t, "linux", PlatformLinux.NameSegment())

	require.Equal(t, FormatZip, PlatformWindows.ArchiveFormat())
	require.Equal(t, FormatTarGz, PlatformLinux.ArchiveFormat())
	require.Equal(t, FormatTarGz, PlatformDarwin.ArchiveFormat())
	require.Equal(t, FormatTarGz, PlatformAndroid.ArchiveFormat())

	require.Equal(t, ".exe", PlatformWindows.ExecutableExtension())
	require.Empty(t, PlatformDarwin.ExecutableExtension())

	require.True(t, PlatformWindows.Batch())
	require.True(t, PlatformDarwin.Batch())
	require.False(t, PlatformLinuxStatic.Batch())
	require.False(t, PlatformAndroid.Batch())
}

// TestSupported checks the supported-architecture table.
func TestSupported(t *testing.T) {
	t.Parallel()

	for _, arch := range Architectures() {
		require.True(t, Supported(PlatformLinux, arch))
		require.True(t, Supported(PlatformLinuxStatic, arch))
		require.True(t, Supported(PlatformAndroid, arch))
	}

	require.True(t, Supported(PlatformWindows, ArchX8664))
	require.False(t, Supported(PlatformWindows, ArchARM))
	require.True(t, Supported(PlatformDarwin, ArchARM64))
	require.False(t, Supported(PlatformDarwin, ArchX86))
	require.False(t, Supported(PlatformLinuxStatic, Architecture("mips")))
}
