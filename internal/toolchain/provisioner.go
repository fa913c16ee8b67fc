package toolchain

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bestruirui/bestsub-release/internal/logger"
)

// ProvisionError reports a toolchain download or extraction failure.
// It is fatal to the cells depending on that toolchain; other cells may
// still proceed if the caller continues the loop.
type ProvisionError struct {
	// Toolchain is the Spec name that failed to provision.
	Toolchain string
	Err       error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provision toolchain %s: %v", e.Toolchain, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// executableBits is the union of user, group and other execute bits.
const executableBits = 0o111

// Provisioner installs cross-compilation toolchains under a fixed,
// user-scoped cache root. Installs persist across runs; the cache
// directory is the only state shared between runs and is not locked,
// so concurrent orchestrator invocations must be serialized by the
// operator.
type Provisioner struct {
	// root is the cache directory holding one subdirectory per toolchain.
	root string
	// client performs bundle downloads.
	client *http.Client
}

// New creates a provisioner rooted at the given cache directory.
func New(root string) *Provisioner {
	return &Provisioner{
		root: root,
		// No timeout: downloads are large and block the run by design.
		client: &http.Client{},
	}
}

// Ensure guarantees the toolchain described by spec is installed and
// returns its install directory. The call is idempotent: when the probe
// compiler already exists and is executable, it returns immediately
// without any network access. The provisioner does not retry; a caller
// wanting retries re-invokes Ensure.
func (p *Provisioner) Ensure(ctx context.Context, spec Spec) (string, error) {
	installDir := filepath.Join(p.root, spec.Name)
	probe := filepath.Join(installDir, spec.Probe)

	if info, err := os.Stat(probe); err == nil && info.Mode().Perm()&executableBits != 0 {
		logger.DebugKV(ctx, "Toolchain already installed", "toolchain", spec.Name, "compiler", probe)
		return installDir, nil
	}

	logger.InfoKV(ctx, "Provisioning toolchain", "toolchain", spec.Name, "url", spec.URL)

	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return "", &ProvisionError{Toolchain: spec.Name, Err: fmt.Errorf("create install directory: %w", err)}
	}

	bundle, err := p.download(ctx, spec.URL)
	if err != nil {
		return "", &ProvisionError{Toolchain: spec.Name, Err: err}
	}
	defer func() {
		// The temporary download never outlives provisioning.
		_ = os.Remove(bundle)
	}()

	if err := extract(bundle, installDir); err != nil {
		return "", &ProvisionError{Toolchain: spec.Name, Err: err}
	}

	if info, err := os.Stat(probe); err != nil || info.Mode().Perm()&executableBits == 0 {
		return "", &ProvisionError{
			Toolchain: spec.Name,
			Err:       fmt.Errorf("compiler %s missing or not executable after extraction", probe),
		}
	}

	logger.InfoKV(ctx, "Toolchain installed", "toolchain", spec.Name, "dir", installDir)

	return installDir, nil
}

// download fetches the bundle into a temporary file under the cache
// root and returns its path. The caller removes the file.
func (p *Provisioner) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download bundle: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download bundle: unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(p.root, "bundle-*"+bundleSuffix(url))
	if err != nil {
		return "", fmt.Errorf("create temporary download: %w", err)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return "", fmt.Errorf("write temporary download: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return "", fmt.Errorf("close temporary download: %w", err)
	}

	return tmp.Name(), nil
}

// bundleSuffix preserves the archive extension so extraction can pick
// the right format.
func bundleSuffix(url string) string {
	switch {
	case strings.HasSuffix(url, ".zip"):
		return ".zip"
	case strings.HasSuffix(url, ".tgz"):
		return ".tgz"
	case strings.HasSuffix(url, ".tar.gz"):
		return ".tar.gz"
	default:
		return ""
	}
}
