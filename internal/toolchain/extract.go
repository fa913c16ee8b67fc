package toolchain

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// errUnknownBundleFormat is returned for bundles that are neither
// gzipped tarballs nor zip files.
var errUnknownBundleFormat = errors.New("unknown bundle format")

// extract unpacks a downloaded bundle into destDir, stripping the
// single leading path component every toolchain bundle carries so that
// bin/ lands directly under the install root.
func extract(bundle, destDir string) error {
	switch {
	case strings.HasSuffix(bundle, ".tgz"), strings.HasSuffix(bundle, ".tar.gz"):
		return extractTarGz(bundle, destDir)
	case strings.HasSuffix(bundle, ".zip"):
		return extractZip(bundle, destDir)
	default:
		return fmt.Errorf("%s: %w", filepath.Base(bundle), errUnknownBundleFormat)
	}
}

// extractTarGz unpacks a gzipped tarball, handling directories, regular
// files, symlinks and hard links.
func extractTarGz(bundle, destDir string) error {
	file, err := os.Open(filepath.Clean(bundle))
	if err != nil {
		return fmt.Errorf("open bundle: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer func() {
		_ = gz.Close()
	}()

	reader := tar.NewReader(gz)

	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}

		target, ok, err := stripTarget(destDir, header.Name)
		if err != nil {
			return err
		}

		if !ok {
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode).Perm()|0o700); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
		case tar.TypeReg:
			if err := writeFile(target, reader, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			_ = os.Remove(target)

			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("create symlink: %w", err)
			}
		case tar.TypeLink:
			// musl bundles hard-link tools inside bin/; the link
			// target is an archive path with the same leading
			// component to strip.
			source, sourceOK, err := stripTarget(destDir, header.Linkname)
			if err != nil {
				return err
			}

			if !sourceOK {
				continue
			}

			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create parent directory: %w", err)
			}

			_ = os.Remove(target)

			if err := os.Link(source, target); err != nil {
				return fmt.Errorf("create hard link: %w", err)
			}
		default:
			// Character devices and the like never appear in
			// toolchain bundles; skip quietly.
		}
	}
}

// extractZip unpacks a zip bundle.
func extractZip(bundle, destDir string) error {
	reader, err := zip.OpenReader(bundle)
	if err != nil {
		return fmt.Errorf("open zip bundle: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	for _, entry := range reader.File {
		target, ok, err := stripTarget(destDir, entry.Name)
		if err != nil {
			return err
		}

		if !ok {
			continue
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, entry.Mode().Perm()|0o700); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			continue
		}

		source, err := entry.Open()
		if err != nil {
			return fmt.Errorf("open zip entry: %w", err)
		}

		err = writeFile(target, source, entry.Mode().Perm())

		_ = source.Close()

		if err != nil {
			return err
		}
	}

	return nil
}

// stripTarget resolves an archive entry name against destDir with the
// first path component removed. Entries without a remainder (the root
// directory itself) and entries escaping destDir are rejected.
func stripTarget(destDir, name string) (string, bool, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", false, fmt.Errorf("bundle entry escapes install directory: %s", name)
	}

	parts := strings.SplitN(clean, string(filepath.Separator), 2)
	if len(parts) < 2 || parts[1] == "" {
		return "", false, nil
	}

	return filepath.Join(destDir, parts[1]), true, nil
}

// writeFile materializes one archive entry on disk.
func writeFile(target string, source io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Clean(target), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(file, source); err != nil {
		_ = file.Close()

		return fmt.Errorf("write file: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}

	return nil
}
