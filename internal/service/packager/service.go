package packager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bestruirui/bestsub-release/internal/config"
	"github.com/bestruirui/bestsub-release/internal/domain/build"
	"github.com/bestruirui/bestsub-release/internal/logger"
)

// PackagingError reports an archive failure. It is fatal to that
// artifact's packaging only; remaining artifacts are still processed.
type PackagingError struct {
	// Artifact is the binary whose packaging failed.
	Artifact string
	Err      error
}

func (e *PackagingError) Error() string {
	return fmt.Sprintf("package %s: %v", e.Artifact, e.Err)
}

func (e *PackagingError) Unwrap() error {
	return e.Err
}

// StagingError reports a failure preparing the shared license and
// readme copies. Without them no archive can contain its required
// entries, so it is fatal to the whole packaging phase.
type StagingError struct {
	Err error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("stage shared files: %v", e.Err)
}

func (e *StagingError) Unwrap() error {
	return e.Err
}

// Service bundles each artifact with the shared license and readme
// files into a platform-conventional archive and deletes the
// uncompressed originals.
type Service struct {
	cfg *config.Config
}

// New creates a packaging pipeline.
func New(cfg *config.Config) *Service {
	return &Service{cfg: cfg}
}

// Run packages every present artifact. Artifacts whose files are
// absent (their platform was skipped this run) are silently skipped,
// so the archive set is exactly the set of artifacts actually present.
// A shared-file staging failure returns a StagingError before any
// artifact is processed. Per-artifact failures are joined into the
// returned error; archives already produced are kept.
func (s *Service) Run(ctx context.Context, artifacts []build.Artifact) ([]string, error) {
	ctx = logger.WithName(ctx, "packager")

	shared, cleanup, err := s.stageSharedFiles(ctx)
	if err != nil {
		return nil, err
	}
	// Staged copies must not remain as stray output files.
	defer cleanup()

	archives := make([]string, 0, len(artifacts))

	var failures []error

	for _, artifact := range artifacts {
		if _, err := os.Stat(artifact.Path); errors.Is(err, os.ErrNotExist) {
			logger.InfoKV(ctx, "Artifact absent, skipping", "artifact", artifact.Path)
			continue
		}

		archive, err := s.packageOne(ctx, artifact, shared)
		if err != nil {
			failures = append(failures, &PackagingError{Artifact: filepath.Base(artifact.Path), Err: err})
			continue
		}

		archives = append(archives, archive)
	}

	return archives, errors.Join(failures...)
}

// packageOne archives a single artifact with the shared files and
// removes the uncompressed binary on success.
func (s *Service) packageOne(ctx context.Context, artifact build.Artifact, shared []string) (string, error) {
	base := filepath.Base(artifact.Path)
	archivePath := filepath.Join(s.cfg.OutputDir, artifact.ArchiveName(base))

	entries := append([]string{artifact.Path}, shared...)

	var err error

	switch artifact.Platform.ArchiveFormat() {
	case build.FormatZip:
		err = writeZip(archivePath, entries)
	case build.FormatTarGz:
		err = writeTarGz(archivePath, entries)
	default:
		err = fmt.Errorf("unknown archive format %q", artifact.Platform.ArchiveFormat())
	}

	if err != nil {
		_ = os.Remove(archivePath)

		return "", err
	}

	if err := os.Remove(artifact.Path); err != nil {
		return "", fmt.Errorf("remove uncompressed binary: %w", err)
	}

	logger.InfoKV(ctx, "Packaged", "archive", filepath.Base(archivePath))

	return archivePath, nil
}

// stageSharedFiles copies the license and readme into the output
// directory once per run and returns a cleanup removing them.
func (s *Service) stageSharedFiles(ctx context.Context) ([]string, func(), error) {
	sources := []string{s.cfg.LicenseFile, s.cfg.ReadmeFile}
	staged := make([]string, 0, len(sources))

	cleanup := func() {
		for _, path := range staged {
			_ = os.Remove(path)
		}
	}

	for _, source := range sources {
		target := filepath.Join(s.cfg.OutputDir, filepath.Base(source))

		if err := copyFile(source, target); err != nil {
			cleanup()

			return nil, nil, &StagingError{Err: err}
		}

		staged = append(staged, target)
	}

	logger.DebugKV(ctx, "Staged shared files", "files", staged)

	return staged, cleanup, nil
}

// copyFile duplicates a shared file with conventional permissions.
func copyFile(src, dst string) error {
	source, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() {
		_ = source.Close()
	}()

	target, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(target, source); err != nil {
		_ = target.Close()

		return err
	}

	return target.Close()
}
