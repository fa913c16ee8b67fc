package toolchain

import (
	"fmt"
	"path/filepath"

	"github.com/bestruirui/bestsub-release/internal/config"
	"github.com/bestruirui/bestsub-release/internal/domain/build"
)

// Spec identifies one provisionable toolchain bundle: where it lives
// under the cache root, where to fetch it, and which file proves it is
// installed. Once installed the probe file must exist and be executable
// before any build referencing the toolchain proceeds.
type Spec struct {
	// Name is the directory name under the cache root.
	Name string
	// URL is the remote bundle location.
	URL string
	// Probe is the compiler path relative to the install directory.
	Probe string
}

// muslTriples maps architectures to musl cross toolchain triples.
//
//nolint:gochecknoglobals // Immutable lookup table.
var muslTriples = map[build.Architecture]string{
	build.ArchX8664: "x86_64-linux-musl",
	build.ArchX86:   "i686-linux-musl",
	build.ArchARM64: "aarch64-linux-musl",
	build.ArchARM:   "arm-linux-musleabi",
}

// androidTriples maps architectures to NDK clang driver triples.
//
//nolint:gochecknoglobals // Immutable lookup table.
var androidTriples = map[build.Architecture]string{
	build.ArchX8664: "x86_64-linux-android",
	build.ArchX86:   "i686-linux-android",
	build.ArchARM64: "aarch64-linux-android",
	build.ArchARM:   "armv7a-linux-androideabi",
}

// ndkPrebuiltDir is the host tag of the NDK's prebuilt llvm toolchain.
// Cross-building releases is supported from Linux x86_64 hosts only.
const ndkPrebuiltDir = "toolchains/llvm/prebuilt/linux-x86_64"

// MuslTriple returns the musl cross triple for an architecture.
func MuslTriple(arch build.Architecture) (string, error) {
	triple, ok := muslTriples[arch]
	if !ok {
		return "", &build.UnsupportedTargetError{Platform: build.PlatformLinuxStatic, Arch: arch}
	}

	return triple, nil
}

// MuslSpec describes the statically-linking cross toolchain for an
// architecture.
func MuslSpec(cfg *config.Config, arch build.Architecture) (Spec, error) {
	triple, err := MuslTriple(arch)
	if err != nil {
		return Spec{}, err
	}

	return Spec{
		Name:  triple + "-cross",
		URL:   fmt.Sprintf(cfg.MuslURLTemplate, triple),
		Probe: filepath.Join("bin", triple+"-gcc"),
	}, nil
}

// MuslCompiler returns the gcc path inside an installed musl toolchain.
func MuslCompiler(installDir string, arch build.Architecture) (string, error) {
	triple, err := MuslTriple(arch)
	if err != nil {
		return "", err
	}

	return filepath.Join(installDir, "bin", triple+"-gcc"), nil
}

// NDKSpec describes the Android NDK bundle.
func NDKSpec(cfg *config.Config) Spec {
	return Spec{
		Name:  cfg.NDKRelease,
		URL:   cfg.NDKURL,
		Probe: filepath.Join(ndkPrebuiltDir, "bin", "clang"),
	}
}

// NDKClang returns the per-architecture clang driver path inside an
// installed NDK.
func NDKClang(installDir string, arch build.Architecture, apiLevel int) (string, error) {
	triple, ok := androidTriples[arch]
	if !ok {
		return "", &build.UnsupportedTargetError{Platform: build.PlatformAndroid, Arch: arch}
	}

	driver := fmt.Sprintf("%s%d-clang", triple, apiLevel)

	return filepath.Join(installDir, ndkPrebuiltDir, "bin", driver), nil
}

// NDKStrip returns the llvm-strip path inside an installed NDK.
func NDKStrip(installDir string) string {
	return filepath.Join(installDir, ndkPrebuiltDir, "bin", "llvm-strip")
}
