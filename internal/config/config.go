package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Config holds the immutable parameters of one release run.
// It is constructed once at process start and passed explicitly into
// every component; no component reads ambient global state.
type Config struct {
	// AppName is the name of the application being built and the
	// prefix of every produced artifact.
	AppName string `yaml:"app_name"`
	// MainPackage is the package path passed to the build tool.
	MainPackage string `yaml:"main_package"`
	// Author is embedded into every binary at link time.
	Author string `yaml:"author"`
	// OutputDir is where artifacts, archives and the checksum
	// manifest are produced.
	OutputDir string `yaml:"output_dir"`
	// LicenseFile and ReadmeFile are bundled into every archive.
	LicenseFile string `yaml:"license_file"`
	ReadmeFile  string `yaml:"readme_file"`
	// Timezone is the IANA zone used to render the build timestamp.
	Timezone string `yaml:"timezone"`
	// CacheDir is the toolchain cache root. Defaults to a user-scoped
	// XDG cache directory and persists across runs.
	CacheDir string `yaml:"cache_dir"`
	// MuslURLTemplate is the download URL for musl cross toolchains,
	// with a single %s placeholder for the target triple.
	MuslURLTemplate string `yaml:"musl_url_template"`
	// NDKURL is the download URL of the Android NDK bundle.
	NDKURL string `yaml:"ndk_url"`
	// NDKRelease names the NDK directory under the cache root.
	NDKRelease string `yaml:"ndk_release"`
	// AndroidAPI is the minimum Android API level targeted.
	AndroidAPI int `yaml:"android_api"`
	// PackWindows enables producing an additional executable-packer
	// variant for every Windows binary.
	PackWindows bool `yaml:"pack_windows"`
}

const (
	// DefaultConfigFilename is the default filename for release settings.
	DefaultConfigFilename = "bestsub-release.yaml"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// cacheSubdir is the per-application directory under the XDG cache home.
	cacheSubdir = "bestsub-release"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errAppNameRequired is returned when the application name is missing.
	errAppNameRequired = errors.New("application name must be provided")
)

// Default returns a configuration populated with the stock bestsub
// release parameters.
func Default() *Config {
	cfg := &Config{
		AppName:     "bestsub",
		Author:      "bestruirui",
		PackWindows: true,
	}
	applyDefaults(cfg)

	return cfg
}

// Load reads configuration from the provided path, fills defaults and
// validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the provided settings for
// required fields and formatting.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.AppName == "" {
		return errAppNameRequired
	}

	applyDefaults(cfg)

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	if cfg.AndroidAPI <= 0 {
		return fmt.Errorf("invalid android api level: %d", cfg.AndroidAPI)
	}

	return nil
}

// applyDefaults fills unset fields with stock values.
func applyDefaults(cfg *Config) {
	if cfg.MainPackage == "" {
		cfg.MainPackage = "."
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = "dist"
	}

	if cfg.LicenseFile == "" {
		cfg.LicenseFile = "LICENSE"
	}

	if cfg.ReadmeFile == "" {
		cfg.ReadmeFile = "README.md"
	}

	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Shanghai"
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(xdg.CacheHome, cacheSubdir)
	}

	if cfg.MuslURLTemplate == "" {
		cfg.MuslURLTemplate = "https://musl.cc/%s-cross.tgz"
	}

	if cfg.NDKRelease == "" {
		cfg.NDKRelease = "android-ndk-r27"
	}

	if cfg.NDKURL == "" {
		cfg.NDKURL = fmt.Sprintf("https://dl.google.com/android/repository/%s-linux.zip", cfg.NDKRelease)
	}

	if cfg.AndroidAPI == 0 {
		cfg.AndroidAPI = 24
	}
}

// Location resolves the configured timezone. Validate must have
// succeeded beforehand.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}

	return loc
}
