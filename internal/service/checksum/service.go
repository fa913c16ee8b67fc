package checksum

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bestruirui/bestsub-release/internal/logger"
)

// ManifestFilename is the checksum manifest written into the output
// directory. The file itself is never hashed.
const ManifestFilename = "checksums.txt"

// Entry is one (file name, content hash) pair of the manifest.
type Entry struct {
	// Name is the file path relative to the output directory.
	Name string
	// Sum is the hex-encoded SHA-256 of the file contents.
	Sum string
}

// Manifest is the complete set of entries for one run, in enumeration
// order.
type Manifest struct {
	Entries []Entry
}

// ChecksumError reports an unreadable file. The manifest's completeness
// is a correctness requirement, so this error is fatal to the run.
type ChecksumError struct {
	// Path is the file that could not be hashed.
	Path string
	Err  error
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum %s: %v", e.Path, e.Err)
}

func (e *ChecksumError) Unwrap() error {
	return e.Err
}

// Service hashes every final output file into a manifest.
type Service struct{}

// New creates a checksum generator.
func New() *Service {
	return &Service{}
}

// Generate walks the directory, hashes every regular file except the
// manifest itself and writes the manifest with one `<hash>  <path>`
// line per entry. Enumeration order is the walk order, which is
// deterministic for a given tree.
func (s *Service) Generate(ctx context.Context, dir string) (*Manifest, error) {
	ctx = logger.WithName(ctx, "checksum")

	manifest := &Manifest{}

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return &ChecksumError{Path: path, Err: err}
		}

		if !entry.Type().IsRegular() {
			return nil
		}

		relative, err := filepath.Rel(dir, path)
		if err != nil {
			return &ChecksumError{Path: path, Err: err}
		}

		if relative == ManifestFilename {
			return nil
		}

		sum, err := hashFile(path)
		if err != nil {
			return &ChecksumError{Path: path, Err: err}
		}

		manifest.Entries = append(manifest.Entries, Entry{
			Name: filepath.ToSlash(relative),
			Sum:  sum,
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.write(filepath.Join(dir, ManifestFilename), manifest); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Wrote checksum manifest", "entries", len(manifest.Entries), "file", ManifestFilename)

	return manifest, nil
}

// write renders the manifest in sha256sum-compatible format.
func (s *Service) write(path string, manifest *Manifest) error {
	var b strings.Builder

	for _, entry := range manifest.Entries {
		fmt.Fprintf(&b, "%s  %s\n", entry.Sum, entry.Name)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return &ChecksumError{Path: path, Err: err}
	}

	return nil
}

// hashFile streams one file through SHA-256.
func hashFile(path string) (string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
