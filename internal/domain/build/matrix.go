package build

// Architecture is a CPU architecture the matrix can target.
// Its string value is the spelling used in artifact names; GoArch
// returns the toolchain spelling.
type Architecture string

const (
	ArchX8664 Architecture = "x86_64"
	ArchX86   Architecture = "x86"
	ArchARM64 Architecture = "arm64"
	ArchARM   Architecture = "arm"
)

// Platform is a build target. Linux appears twice because dynamic and
// static linking are distinct build strategies over the same OS.
type Platform string

const (
	PlatformLinux       Platform = "linux"
	PlatformLinuxStatic Platform = "linux-static"
	PlatformWindows     Platform = "windows"
	PlatformDarwin      Platform = "darwin"
	PlatformAndroid     Platform = "android"
)

// ArchiveFormat selects how artifacts of a platform are bundled.
type ArchiveFormat string

const (
	FormatTarGz ArchiveFormat = "tar.gz"
	FormatZip   ArchiveFormat = "zip"
)

// Architectures returns every known architecture in matrix order.
func Architectures() []Architecture {
	return []Architecture{ArchX8664, ArchX86, ArchARM64, ArchARM}
}

// Platforms returns every known platform in matrix order.
func Platforms() []Platform {
	return []Platform{PlatformLinux, PlatformLinuxStatic, PlatformWindows, PlatformDarwin, PlatformAndroid}
}

// ParseArchitecture maps user input, including Go toolchain spellings,
// to an Architecture.
func ParseArchitecture(s string) (Architecture, bool) {
	switch s {
	case "x86_64", "amd64":
		return ArchX8664, true
	case "x86", "386", "i686":
		return ArchX86, true
	case "arm64", "aarch64":
		return ArchARM64, true
	case "arm":
		return ArchARM, true
	default:
		return "", false
	}
}

// ParsePlatform maps user input to a Platform.
func ParsePlatform(s string) (Platform, bool) {
	switch s {
	case "linux":
		return PlatformLinux, true
	case "linux-static", "linux-musl":
		return PlatformLinuxStatic, true
	case "windows":
		return PlatformWindows, true
	case "darwin", "macos":
		return PlatformDarwin, true
	case "android":
		return PlatformAndroid, true
	default:
		return "", false
	}
}

// GoArch returns the GOARCH value for the architecture.
func (a Architecture) GoArch() string {
	switch a {
	case ArchX8664:
		return "amd64"
	case ArchX86:
		return "386"
	case ArchARM64:
		return "arm64"
	case ArchARM:
		return "arm"
	default:
		return string(a)
	}
}

// GOOS returns the GOOS value for the platform.
func (p Platform) GOOS() string {
	if p == PlatformLinuxStatic {
		return "linux"
	}

	return string(p)
}

// NameSegment returns the platform part of artifact names.
// The static Linux strategy is distinguished by its libc.
func (p Platform) NameSegment() string {
	if p == PlatformLinuxStatic {
		return "linux-musl"
	}

	return string(p)
}

// ArchiveFormat returns the platform-conventional archive format.
func (p Platform) ArchiveFormat() ArchiveFormat {
	if p == PlatformWindows {
		return FormatZip
	}

	return FormatTarGz
}

// ExecutableExtension returns the suffix of binaries built for the platform.
func (p Platform) ExecutableExtension() string {
	if p == PlatformWindows {
		return ".exe"
	}

	return ""
}

// Batch reports whether the platform is built by a single external
// cross-build invocation covering all selected architectures at once.
func (p Platform) Batch() bool {
	return p == PlatformWindows || p == PlatformDarwin
}

// supportedArchitectures lists buildable architectures per platform.
// Combinations outside this table fail with an UnsupportedTargetError
// before any toolchain or network activity.
//
//nolint:gochecknoglobals // Immutable lookup table.
var supportedArchitectures = map[Platform][]Architecture{
	PlatformLinux:       {ArchX8664, ArchX86, ArchARM64, ArchARM},
	PlatformLinuxStatic: {ArchX8664, ArchX86, ArchARM64, ArchARM},
	PlatformWindows:     {ArchX8664, ArchX86},
	PlatformDarwin:      {ArchX8664, ArchARM64},
	PlatformAndroid:     {ArchX8664, ArchX86, ArchARM64, ArchARM},
}

// Supported reports whether the (platform, architecture) cell is buildable.
func Supported(p Platform, a Architecture) bool {
	for _, candidate := range supportedArchitectures[p] {
		if candidate == a {
			return true
		}
	}

	return false
}
