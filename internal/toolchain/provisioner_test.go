package toolchain

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// tarGzBundle builds an in-memory gzipped tarball with a single leading
// path component, mirroring real toolchain bundles.
func tarGzBundle(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, contents := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o755,
			Size:     int64(len(contents)),
		}))

		_, err := tw.Write([]byte(contents))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	return buf.Bytes()
}

// zipBundle builds an in-memory zip with a single leading path component.
func zipBundle(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for name, contents := range entries {
		header := &zip.FileHeader{Name: name, Method: zip.Deflate}
		header.SetMode(0o755)

		w, err := zw.CreateHeader(header)
		require.NoError(t, err)

		_, err = w.Write([]byte(contents))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())

	return buf.Bytes()
}

// TestEnsureIdempotent verifies that provisioning downloads at most
// once: the second call succeeds without any network access.
func TestEnsureIdempotent(t *testing.T) {
	t.Parallel()

	bundle := tarGzBundle(t, map[string]string{
		"x86_64-linux-musl-cross/bin/x86_64-linux-musl-gcc": "#!/bin/sh\n",
	})

	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)

		_, _ = w.Write(bundle)
	}))
	t.Cleanup(server.Close)

	root := t.TempDir()
	provisioner := New(root)

	spec := Spec{
		Name:  "x86_64-linux-musl-cross",
		URL:   server.URL + "/x86_64-linux-musl-cross.tgz",
		Probe: filepath.Join("bin", "x86_64-linux-musl-gcc"),
	}

	ctx := context.Background()

	installDir, err := provisioner.Ensure(ctx, spec)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, spec.Name), installDir)

	// Leading path component is stripped: bin/ sits under the root.
	compiler := filepath.Join(installDir, "bin", "x86_64-linux-musl-gcc")
	info, err := os.Stat(compiler)
	require.NoError(t, err)
	require.NotZero(t, info.Mode().Perm()&0o111)

	// Temporary download is gone.
	matches, err := filepath.Glob(filepath.Join(root, "bundle-*"))
	require.NoError(t, err)
	require.Empty(t, matches)

	// Second call performs no network I/O.
	_, err = provisioner.Ensure(ctx, spec)
	require.NoError(t, err)
	require.Equal(t, int32(1), hits.Load())
}

// TestEnsureHardLinkedBundle ensures hard links among bundle tools are
// materialized instead of silently dropped.
func TestEnsureHardLinkedBundle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	contents := "#!/bin/sh\n"
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "arm-linux-musleabi-cross/bin/arm-linux-musleabi-gcc",
		Typeflag: tar.TypeReg,
		Mode:     0o755,
		Size:     int64(len(contents)),
	}))

	_, err := tw.Write([]byte(contents))
	require.NoError(t, err)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "arm-linux-musleabi-cross/bin/arm-linux-musleabi-cc",
		Typeflag: tar.TypeLink,
		Linkname: "arm-linux-musleabi-cross/bin/arm-linux-musleabi-gcc",
	}))

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(server.Close)

	provisioner := New(t.TempDir())

	installDir, err := provisioner.Ensure(context.Background(), Spec{
		Name:  "arm-linux-musleabi-cross",
		URL:   server.URL + "/arm-linux-musleabi-cross.tgz",
		Probe: filepath.Join("bin", "arm-linux-musleabi-gcc"),
	})
	require.NoError(t, err)

	linked, err := os.ReadFile(filepath.Join(installDir, "bin", "arm-linux-musleabi-cc"))
	require.NoError(t, err)
	require.Equal(t, contents, string(linked))
}

// TestEnsureZipBundle covers the NDK-style zip path.
func TestEnsureZipBundle(t *testing.T) {
	t.Parallel()

	bundle := zipBundle(t, map[string]string{
		"android-ndk-r27/toolchains/llvm/prebuilt/linux-x86_64/bin/clang": "#!/bin/sh\n",
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(bundle)
	}))
	t.Cleanup(server.Close)

	provisioner := New(t.TempDir())

	spec := Spec{
		Name:  "android-ndk-r27",
		URL:   server.URL + "/android-ndk-r27-linux.zip",
		Probe: filepath.Join("toolchains", "llvm", "prebuilt", "linux-x86_64", "bin", "clang"),
	}

	installDir, err := provisioner.Ensure(context.Background(), spec)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(installDir, spec.Probe))
	require.NoError(t, err)
}

// TestEnsureDownloadFailure ensures HTTP errors surface as ProvisionError.
func TestEnsureDownloadFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	provisioner := New(t.TempDir())

	_, err := provisioner.Ensure(context.Background(), Spec{
		Name:  "broken",
		URL:   server.URL + "/broken.tgz",
		Probe: filepath.Join("bin", "gcc"),
	})
	require.Error(t, err)

	var provisionErr *ProvisionError
	require.ErrorAs(t, err, &provisionErr)
	require.Equal(t, "broken", provisionErr.Toolchain)
}
