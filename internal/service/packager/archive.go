package packager

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// writeTarGz bundles the given files, by base name, into a gzipped
// tarball.
func writeTarGz(archivePath string, files []string) error {
	out, err := os.Create(filepath.Clean(archivePath))
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for _, file := range files {
		if err := addTarEntry(tw, file); err != nil {
			_ = tw.Close()
			_ = gz.Close()
			_ = out.Close()

			return err
		}
	}

	if err := tw.Close(); err != nil {
		_ = gz.Close()
		_ = out.Close()

		return fmt.Errorf("finish tar stream: %w", err)
	}

	if err := gz.Close(); err != nil {
		_ = out.Close()

		return fmt.Errorf("finish gzip stream: %w", err)
	}

	return out.Close()
}

// addTarEntry appends one file to the tar stream under its base name.
func addTarEntry(tw *tar.Writer, path string) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("build tar header: %w", err)
	}

	header.Name = filepath.Base(path)

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write tar header: %w", err)
	}

	if _, err := io.Copy(tw, file); err != nil {
		return fmt.Errorf("write tar entry: %w", err)
	}

	return nil
}

// writeZip bundles the given files, by base name, into a zip archive.
func writeZip(archivePath string, files []string) error {
	out, err := os.Create(filepath.Clean(archivePath))
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	zw := zip.NewWriter(out)

	for _, file := range files {
		if err := addZipEntry(zw, file); err != nil {
			_ = zw.Close()
			_ = out.Close()

			return err
		}
	}

	if err := zw.Close(); err != nil {
		_ = out.Close()

		return fmt.Errorf("finish zip archive: %w", err)
	}

	return out.Close()
}

// addZipEntry appends one file to the zip archive under its base name.
func addZipEntry(zw *zip.Writer, path string) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("build zip header: %w", err)
	}

	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("write zip header: %w", err)
	}

	if _, err := io.Copy(writer, file); err != nil {
		return fmt.Errorf("write zip entry: %w", err)
	}

	return nil
}
