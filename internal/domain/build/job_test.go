package build

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestOutputName pins the deterministic artifact naming scheme.
func TestOutputName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		platform Platform
		arch     Architecture
		want     string
	}{
		{PlatformLinuxStatic, ArchARM64, "bestsub-linux-musl-arm64"},
		{PlatformLinux, ArchX8664, "bestsub-linux-x86_64"},
		{PlatformWindows, ArchX86, "bestsub-windows-x86.exe"},
		{PlatformDarwin, ArchARM64, "bestsub-darwin-arm64"},
		{PlatformAndroid, ArchARM, "bestsub-android-arm"},
	}
	for _, tc := range cases {
		job := Job{Platform: tc.platform, Arch: tc.arch}
		require.Equal(t, tc.want, job.OutputName("bestsub"))
	}
}

// TestArchiveName ensures archive names strip the executable extension
// and pick the platform-conventional format.
func TestArchiveName(t *testing.T) {
	t.Parallel()

	artifact := Artifact{Platform: PlatformLinuxStatic, Arch: ArchARM64}
	require.Equal(t, "bestsub-linux-musl-arm64.tar.gz", artifact.ArchiveName("bestsub-linux-musl-arm64"))

	artifact = Artifact{Platform: PlatformWindows, Arch: ArchX8664, Packed: true}
	require.Equal(t, "bestsub-windows-x86_64-upx.zip", artifact.ArchiveName("bestsub-windows-x86_64-upx.exe"))
}

// TestLDFlags checks metadata injection and static link flags.
func TestLDFlags(t *testing.T) {
	t.Parallel()

	meta := Metadata{
		Version:   "v1.2.3",
		BuildTime: "2024-01-02 03:04:05",
		Author:    "bestruirui",
	}

	flags := meta.LDFlags(false)
	require.Contains(t, flags, "-s -w")
	require.Contains(t, flags, "-X main.Version=v1.2.3")
	require.Contains(t, flags, "-X 'main.BuildTime=2024-01-02 03:04:05'")
	require.Contains(t, flags, "-X main.Author=bestruirui")
	require.False(t, strings.Contains(flags, "-static"))

	static := meta.LDFlags(true)
	require.Contains(t, static, "-extldflags '-static'")
}

// TestErrorTaxonomy ensures typed errors render the failing cell.
func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	unsupported := &UnsupportedTargetError{Platform: PlatformLinuxStatic, Arch: Architecture("mips")}
	require.Contains(t, unsupported.Error(), "linux-static/mips")

	buildErr := &BuildError{Platform: PlatformAndroid, Arch: ArchARM, Tool: "go", Err: ErrToolNotFound}
	require.Contains(t, buildErr.Error(), "android/arm")
	require.ErrorIs(t, buildErr, ErrToolNotFound)
}
