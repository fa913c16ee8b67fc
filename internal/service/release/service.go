package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bestruirui/bestsub-release/internal/cmdrunner"
	"github.com/bestruirui/bestsub-release/internal/config"
	"github.com/bestruirui/bestsub-release/internal/domain/build"
	"github.com/bestruirui/bestsub-release/internal/logger"
	"github.com/bestruirui/bestsub-release/internal/selector"
	"github.com/bestruirui/bestsub-release/internal/service/builder"
	"github.com/bestruirui/bestsub-release/internal/service/checksum"
	"github.com/bestruirui/bestsub-release/internal/service/packager"
	"github.com/bestruirui/bestsub-release/internal/toolchain"
)

// timestampLayout renders the build timestamp embedded into binaries.
const timestampLayout = "2006-01-02 15:04:05"

// Options contains inputs for the release entry point.
type Options struct {
	// ConfigPath is an optional path to release settings (defaults to
	// bestsub-release.yaml; built-in defaults apply when absent).
	ConfigPath string
	// Release selects the full-matrix preset instead of the
	// interactive menu.
	Release bool
	// OutputDir overrides the configured output directory when set.
	OutputDir string
}

// CellResult records the outcome of one (platform, architecture) cell.
// Every selected cell produces exactly one result: artifacts on
// success, an error on a recorded skip or failure.
type CellResult struct {
	Platform  build.Platform
	Arch      build.Architecture
	Artifacts []build.Artifact
	Err       error
}

// Service drives the pipeline through its strictly ordered phases:
// selection, provisioning + building, packaging, checksumming.
type Service struct {
	cfg      *config.Config
	runner   cmdrunner.Runner
	source   selector.Source
	builder  *builder.Service
	packager *packager.Service
	checksum *checksum.Service
}

// Run executes a release from CLI options and exits non-zero through
// the returned error on the first fatal failure.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "bestsub-release")

	if err := ensureSingleInstance(ctx); err != nil {
		return err
	}

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}

	var source selector.Source = selector.Preset{}
	if !opts.Release {
		source = selector.NewInteractive(os.Stdin, os.Stdout)
	}

	service := NewService(cfg, cmdrunner.NewExecRunner(), source)

	results, err := service.Run(ctx)
	if err != nil {
		return err
	}

	service.logSummary(ctx, results)

	return nil
}

// loadConfig reads the settings file when present and falls back to the
// stock defaults otherwise. An explicitly passed path must exist.
func loadConfig(path string) (*config.Config, error) {
	target := path
	if target == "" {
		target = config.DefaultConfigFilename
	}

	if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
		if path != "" {
			return nil, fmt.Errorf("settings file %s: %w", path, os.ErrNotExist)
		}

		return config.Default(), nil
	}

	return config.Load(target)
}

// NewService wires the pipeline components over shared configuration.
func NewService(cfg *config.Config, runner cmdrunner.Runner, source selector.Source) *Service {
	toolchains := toolchain.New(cfg.CacheDir)

	return &Service{
		cfg:      cfg,
		runner:   runner,
		source:   source,
		builder:  builder.New(cfg, runner, toolchains),
		packager: packager.New(cfg),
		checksum: checksum.New(),
	}
}

// Run walks the selected matrix one cell at a time and returns one
// result per cell. Cell-scoped errors are recorded and the run
// proceeds; errors wrapping build.ErrToolNotFound and any packaging
// staging or checksum failure abort the run.
func (s *Service) Run(ctx context.Context) ([]CellResult, error) {
	matrix, err := s.source.Select(ctx)
	if err != nil {
		return nil, fmt.Errorf("select matrix: %w", err)
	}

	if err := s.preflight(ctx, matrix); err != nil {
		return nil, err
	}

	meta, err := s.resolveMetadata(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	results, err := s.buildMatrix(ctx, matrix, meta)
	if err != nil {
		return nil, err
	}

	artifacts := make([]build.Artifact, 0, len(results))
	for _, result := range results {
		artifacts = append(artifacts, result.Artifacts...)
	}

	archives, err := s.packager.Run(ctx, artifacts)
	if err != nil {
		// Without the shared files no archive was produced at all;
		// checksumming the raw binaries would report a broken release
		// as a success.
		var staging *packager.StagingError
		if errors.As(err, &staging) {
			return nil, err
		}

		// Archive failures are scoped to their artifact; the
		// produced archives still get checksummed.
		logger.ErrorKV(ctx, "Packaging reported failures", "error", err)
	}

	logger.InfoKV(ctx, "Packaging finished", "archives", len(archives))

	if _, err := s.checksum.Generate(ctx, s.cfg.OutputDir); err != nil {
		return nil, err
	}

	return results, nil
}

// buildMatrix executes the provisioning + building phase, one platform
// at a time in matrix order.
func (s *Service) buildMatrix(ctx context.Context, matrix selector.Matrix, meta build.Metadata) ([]CellResult, error) {
	results := make([]CellResult, 0, len(matrix.Platforms)*len(matrix.Architectures))

	for _, platform := range matrix.Platforms {
		var (
			platformResults []CellResult
			err             error
		)

		if platform.Batch() {
			platformResults, err = s.buildBatchPlatform(ctx, platform, matrix.Architectures, meta)
		} else {
			platformResults, err = s.buildCellPlatform(ctx, platform, matrix.Architectures, meta)
		}

		if err != nil {
			return nil, err
		}

		results = append(results, platformResults...)
	}

	return results, nil
}

// buildCellPlatform runs the per-architecture loop for linux,
// linux-static and android: each cell is best-effort.
func (s *Service) buildCellPlatform(ctx context.Context, platform build.Platform, arches []build.Architecture, meta build.Metadata) ([]CellResult, error) {
	results := make([]CellResult, 0, len(arches))

	for _, arch := range arches {
		job := build.Job{Platform: platform, Arch: arch, Meta: meta}

		artifacts, err := s.builder.BuildCell(ctx, job)
		if err != nil {
			if errors.Is(err, build.ErrToolNotFound) {
				return nil, err
			}

			logger.WarnKV(ctx, "Cell failed, continuing", "platform", platform, "arch", arch, "error", err)
			results = append(results, CellResult{Platform: platform, Arch: arch, Err: err})

			continue
		}

		results = append(results, CellResult{Platform: platform, Arch: arch, Artifacts: artifacts})
	}

	return results, nil
}

// buildBatchPlatform runs one cross-build invocation for windows or
// darwin: the platform step is all-or-nothing, but a failure is
// recorded per cell and the run proceeds to the next platform.
func (s *Service) buildBatchPlatform(ctx context.Context, platform build.Platform, arches []build.Architecture, meta build.Metadata) ([]CellResult, error) {
	results := make([]CellResult, 0, len(arches))
	supported := make([]build.Architecture, 0, len(arches))

	for _, arch := range arches {
		if !build.Supported(platform, arch) {
			err := &build.UnsupportedTargetError{Platform: platform, Arch: arch}
			logger.WarnKV(ctx, "Cell unsupported, continuing", "platform", platform, "arch", arch)
			results = append(results, CellResult{Platform: platform, Arch: arch, Err: err})

			continue
		}

		supported = append(supported, arch)
	}

	if len(supported) == 0 {
		return results, nil
	}

	artifacts, err := s.builder.BuildBatch(ctx, platform, supported, meta)
	if err != nil {
		if errors.Is(err, build.ErrToolNotFound) {
			return nil, err
		}

		logger.ErrorKV(ctx, "Platform step failed", "platform", platform, "error", err)

		for _, arch := range supported {
			results = append(results, CellResult{Platform: platform, Arch: arch, Err: err})
		}

		return results, nil
	}

	byArch := make(map[build.Architecture][]build.Artifact, len(supported))
	for _, artifact := range artifacts {
		byArch[artifact.Arch] = append(byArch[artifact.Arch], artifact)
	}

	for _, arch := range supported {
		results = append(results, CellResult{Platform: platform, Arch: arch, Artifacts: byArch[arch]})
	}

	return results, nil
}

// preflight verifies required external executables before any
// provisioning or build work, so the run fails fast.
func (s *Service) preflight(ctx context.Context, matrix selector.Matrix) error {
	required := []string{"go"}

	needsBatch := false
	needsPacker := false

	for _, platform := range matrix.Platforms {
		if platform.Batch() {
			needsBatch = true
		}

		if platform == build.PlatformWindows && s.cfg.PackWindows {
			needsPacker = true
		}
	}

	if needsBatch {
		required = append(required, "xgo")
	}

	if needsPacker {
		required = append(required, "upx")
	}

	for _, tool := range required {
		if _, err := s.runner.LookPath(tool); err != nil {
			return fmt.Errorf("%s: %w", tool, build.ErrToolNotFound)
		}
	}

	logger.DebugKV(ctx, "Preflight passed", "tools", required)

	return nil
}

// resolveMetadata computes the run-wide link-time constants once. A
// missing tag degrades to a dev version; the timestamp is rendered in
// the configured fixed zone.
func (s *Service) resolveMetadata(ctx context.Context) (build.Metadata, error) {
	version, err := s.runner.Output(ctx, "git", "describe", "--tags", "--abbrev=0")
	if err != nil || version == "" {
		logger.WarnKV(ctx, "No release tag found, using dev version", "error", err)

		version = "dev"
	}

	meta := build.Metadata{
		Version:   version,
		BuildTime: time.Now().In(s.cfg.Location()).Format(timestampLayout),
		Author:    s.cfg.Author,
	}

	logger.InfoKV(ctx, "Resolved release metadata",
		"version", meta.Version, "build_time", meta.BuildTime, "author", meta.Author)

	return meta, nil
}

// logSummary reports every cell's outcome so no pair is silently
// dropped.
func (s *Service) logSummary(ctx context.Context, results []CellResult) {
	var succeeded, failed int

	for _, result := range results {
		if result.Err != nil {
			failed++

			logger.WarnKV(ctx, "Cell skipped or failed",
				"platform", result.Platform, "arch", result.Arch, "error", result.Err)

			continue
		}

		succeeded++
	}

	logger.InfoKV(ctx, "Release finished", "succeeded", succeeded, "failed", failed)
}
