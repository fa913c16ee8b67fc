package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bestruirui/bestsub-release/internal/cmdrunner"
	"github.com/bestruirui/bestsub-release/internal/config"
	"github.com/bestruirui/bestsub-release/internal/domain/build"
	"github.com/bestruirui/bestsub-release/internal/logger"
	"github.com/bestruirui/bestsub-release/internal/toolchain"
)

// Service executes the build matrix one cell (or one batch platform)
// at a time, selecting the right toolchain and environment per cell.
type Service struct {
	// cfg is the immutable run configuration.
	cfg *config.Config
	// runner invokes external build tools.
	runner cmdrunner.Runner
	// toolchains provisions musl cross compilers and the NDK.
	toolchains *toolchain.Provisioner
}

// gnuCompilers maps architectures to the dynamically-linking cross
// compilers expected to be pre-installed through the system package
// manager.
//
//nolint:gochecknoglobals // Immutable lookup table.
var gnuCompilers = map[build.Architecture]string{
	build.ArchX8664: "x86_64-linux-gnu-gcc",
	build.ArchX86:   "i686-linux-gnu-gcc",
	build.ArchARM64: "aarch64-linux-gnu-gcc",
	build.ArchARM:   "arm-linux-gnueabi-gcc",
}

// errBatchPlatform guards against routing a batch platform through the
// per-cell entry point.
var errBatchPlatform = errors.New("batch platform must be built through BuildBatch")

// New creates a build executor.
func New(cfg *config.Config, runner cmdrunner.Runner, toolchains *toolchain.Provisioner) *Service {
	return &Service{
		cfg:        cfg,
		runner:     runner,
		toolchains: toolchains,
	}
}

// BuildCell builds one (platform, architecture) cell for the
// per-architecture strategies: linux, linux-static and android.
// Errors wrapping build.ErrToolNotFound are fatal to the run; every
// other error is scoped to this cell.
func (s *Service) BuildCell(ctx context.Context, job build.Job) ([]build.Artifact, error) {
	if job.Platform.Batch() {
		return nil, errBatchPlatform
	}

	if !build.Supported(job.Platform, job.Arch) {
		return nil, &build.UnsupportedTargetError{Platform: job.Platform, Arch: job.Arch}
	}

	logger.InfoKV(ctx, "Building", "platform", job.Platform, "arch", job.Arch)

	switch job.Platform {
	case build.PlatformLinuxStatic:
		return s.buildLinuxStatic(ctx, job)
	case build.PlatformLinux:
		return s.buildLinux(ctx, job)
	case build.PlatformAndroid:
		return s.buildAndroid(ctx, job)
	default:
		return nil, &build.UnsupportedTargetError{Platform: job.Platform, Arch: job.Arch}
	}
}

// buildLinuxStatic compiles against a provisioned musl cross toolchain
// with fully static linking.
func (s *Service) buildLinuxStatic(ctx context.Context, job build.Job) ([]build.Artifact, error) {
	spec, err := toolchain.MuslSpec(s.cfg, job.Arch)
	if err != nil {
		return nil, err
	}

	installDir, err := s.toolchains.Ensure(ctx, spec)
	if err != nil {
		return nil, err
	}

	compiler, err := toolchain.MuslCompiler(installDir, job.Arch)
	if err != nil {
		return nil, err
	}

	output := filepath.Join(s.cfg.OutputDir, job.OutputName(s.cfg.AppName))
	if err := s.compile(ctx, job, compiler, output, true); err != nil {
		return nil, err
	}

	return []build.Artifact{{Path: output, Platform: job.Platform, Arch: job.Arch}}, nil
}

// buildLinux compiles against a system-installed gnu cross compiler.
// The compiler is a declared prerequisite; its absence aborts the run.
func (s *Service) buildLinux(ctx context.Context, job build.Job) ([]build.Artifact, error) {
	name := gnuCompilers[job.Arch]

	compiler, err := s.runner.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, build.ErrToolNotFound)
	}

	output := filepath.Join(s.cfg.OutputDir, job.OutputName(s.cfg.AppName))
	if err := s.compile(ctx, job, compiler, output, false); err != nil {
		return nil, err
	}

	return []build.Artifact{{Path: output, Platform: job.Platform, Arch: job.Arch}}, nil
}

// buildAndroid compiles with the NDK clang driver, then strips debug
// symbols with the NDK's llvm-strip.
func (s *Service) buildAndroid(ctx context.Context, job build.Job) ([]build.Artifact, error) {
	installDir, err := s.toolchains.Ensure(ctx, toolchain.NDKSpec(s.cfg))
	if err != nil {
		return nil, err
	}

	compiler, err := toolchain.NDKClang(installDir, job.Arch, s.cfg.AndroidAPI)
	if err != nil {
		return nil, err
	}

	output := filepath.Join(s.cfg.OutputDir, job.OutputName(s.cfg.AppName))
	if err := s.compile(ctx, job, compiler, output, false); err != nil {
		return nil, err
	}

	if err := s.runner.Run(ctx, toolchain.NDKStrip(installDir), output); err != nil {
		return nil, &build.BuildError{Platform: job.Platform, Arch: job.Arch, Tool: "llvm-strip", Err: err}
	}

	return []build.Artifact{{Path: output, Platform: job.Platform, Arch: job.Arch}}, nil
}

// compile invokes the external Go build with the cell's cross
// environment and the run-wide link-time metadata.
func (s *Service) compile(ctx context.Context, job build.Job, compiler, output string, static bool) error {
	env := []string{
		"CGO_ENABLED=1",
		"GOOS=" + job.Platform.GOOS(),
		"GOARCH=" + job.Arch.GoArch(),
		"CC=" + compiler,
	}
	if job.Arch == build.ArchARM {
		env = append(env, "GOARM=7")
	}

	err := s.runner.RunEnv(ctx, env,
		"go", "build", "-trimpath",
		"-ldflags", job.Meta.LDFlags(static),
		"-o", output,
		s.cfg.MainPackage)
	if err != nil {
		return &build.BuildError{Platform: job.Platform, Arch: job.Arch, Tool: "go", Err: err}
	}

	return nil
}

// BuildBatch builds every given architecture of a batch platform
// (windows, darwin) in a single cross-build tool invocation. A
// failure aborts the whole platform's step. Windows binaries are
// additionally packed in place when packing is enabled, keeping both
// the packed and the unpacked variant.
func (s *Service) BuildBatch(ctx context.Context, platform build.Platform, arches []build.Architecture, meta build.Metadata) ([]build.Artifact, error) {
	if _, err := s.runner.LookPath("xgo"); err != nil {
		return nil, fmt.Errorf("xgo: %w", build.ErrToolNotFound)
	}

	targets := make([]string, 0, len(arches))
	for _, arch := range arches {
		targets = append(targets, platform.GOOS()+"/"+arch.GoArch())
	}

	logger.InfoKV(ctx, "Building batch", "platform", platform, "targets", strings.Join(targets, ","))

	err := s.runner.Run(ctx,
		"xgo",
		"-targets="+strings.Join(targets, ","),
		"-out", s.cfg.AppName,
		"-ldflags", meta.LDFlags(false),
		"-dest", s.cfg.OutputDir,
		s.cfg.MainPackage)
	if err != nil {
		return nil, &build.BuildError{Platform: platform, Tool: "xgo", Err: err}
	}

	artifacts := make([]build.Artifact, 0, len(arches)*2)

	for _, arch := range arches {
		job := build.Job{Platform: platform, Arch: arch, Meta: meta}

		produced, err := s.findBatchOutput(platform, arch)
		if err != nil {
			return nil, &build.BuildError{Platform: platform, Arch: arch, Tool: "xgo", Err: err}
		}

		canonical := filepath.Join(s.cfg.OutputDir, job.OutputName(s.cfg.AppName))
		if produced != canonical {
			if err := os.Rename(produced, canonical); err != nil {
				return nil, &build.BuildError{Platform: platform, Arch: arch, Tool: "xgo", Err: err}
			}
		}

		artifacts = append(artifacts, build.Artifact{Path: canonical, Platform: platform, Arch: arch})

		if platform == build.PlatformWindows && s.cfg.PackWindows {
			packed, err := s.packExecutable(ctx, canonical)
			if err != nil {
				return nil, err
			}

			artifacts = append(artifacts, build.Artifact{Path: packed, Platform: platform, Arch: arch, Packed: true})
		}
	}

	return artifacts, nil
}

// findBatchOutput locates the file the cross-build tool produced for
// one architecture. The tool may inject an OS version segment into the
// name, so an exact match is tried first and a glob second.
func (s *Service) findBatchOutput(platform build.Platform, arch build.Architecture) (string, error) {
	ext := platform.ExecutableExtension()

	exact := filepath.Join(s.cfg.OutputDir,
		fmt.Sprintf("%s-%s-%s%s", s.cfg.AppName, platform.GOOS(), arch.GoArch(), ext))
	if _, err := os.Stat(exact); err == nil {
		return exact, nil
	}

	pattern := filepath.Join(s.cfg.OutputDir,
		fmt.Sprintf("%s-%s-*-%s%s", s.cfg.AppName, platform.GOOS(), arch.GoArch(), ext))

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("locate batch output: %w", err)
	}

	if len(matches) == 0 {
		return "", fmt.Errorf("no output produced for %s/%s", platform, arch)
	}

	return matches[0], nil
}

// packExecutable produces the "-upx" variant of a Windows binary next
// to the unpacked original. A missing packer aborts the run.
func (s *Service) packExecutable(ctx context.Context, original string) (string, error) {
	if _, err := s.runner.LookPath("upx"); err != nil {
		return "", fmt.Errorf("upx: %w", build.ErrToolNotFound)
	}

	packed := strings.TrimSuffix(original, ".exe") + "-upx.exe"
	if err := copyFile(original, packed); err != nil {
		return "", &build.BuildError{Platform: build.PlatformWindows, Tool: "upx", Err: err}
	}

	if err := s.runner.Run(ctx, "upx", "--best", "--lzma", packed); err != nil {
		_ = os.Remove(packed)

		return "", &build.BuildError{Platform: build.PlatformWindows, Tool: "upx", Err: err}
	}

	return packed, nil
}

// copyFile duplicates a binary preserving the executable mode.
func copyFile(src, dst string) error {
	source, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		_ = source.Close()
	}()

	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	target, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}

	if _, err := io.Copy(target, source); err != nil {
		_ = target.Close()

		return fmt.Errorf("copy contents: %w", err)
	}

	return target.Close()
}
