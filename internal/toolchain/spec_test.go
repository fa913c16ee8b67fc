package toolchain

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bestruirui/bestsub-release/internal/config"
	"github.com/bestruirui/bestsub-release/internal/domain/build"
)

// TestMuslSpec covers the musl toolchain table and its rejection of
// unsupported architectures before any network activity.
func TestMuslSpec(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	spec, err := MuslSpec(cfg, build.ArchARM64)
	require.NoError(t, err)
	require.Equal(t, "aarch64-linux-musl-cross", spec.Name)
	require.Equal(t, "https://musl.cc/aarch64-linux-musl-cross.tgz", spec.URL)
	require.Equal(t, filepath.Join("bin", "aarch64-linux-musl-gcc"), spec.Probe)

	_, err = MuslSpec(cfg, build.Architecture("mips"))
	require.Error(t, err)

	var unsupported *build.UnsupportedTargetError
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, build.PlatformLinuxStatic, unsupported.Platform)
}

// TestNDKPaths covers clang driver and strip tool resolution.
func TestNDKPaths(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	spec := NDKSpec(cfg)
	require.Equal(t, cfg.NDKRelease, spec.Name)
	require.Equal(t, cfg.NDKURL, spec.URL)

	clang, err := NDKClang("/cache/ndk", build.ArchARM, 24)
	require.NoError(t, err)
	require.Equal(t,
		filepath.Join("/cache/ndk", "toolchains/llvm/prebuilt/linux-x86_64", "bin", "armv7a-linux-androideabi24-clang"),
		clang)

	_, err = NDKClang("/cache/ndk", build.Architecture("mips"), 24)
	require.Error(t, err)

	strip := NDKStrip("/cache/ndk")
	require.Equal(t, filepath.Join("/cache/ndk", "toolchains/llvm/prebuilt/linux-x86_64", "bin", "llvm-strip"), strip)
}
