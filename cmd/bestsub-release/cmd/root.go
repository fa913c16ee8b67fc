package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bestruirui/bestsub-release/internal/config"
	"github.com/bestruirui/bestsub-release/internal/logger"
	"github.com/bestruirui/bestsub-release/internal/service/release"
	"github.com/bestruirui/bestsub-release/internal/version"
)

var (
	// configPath to the release settings YAML file.
	configPath string

	// releaseMode builds the full matrix without prompting.
	releaseMode bool

	// outputDir overrides the configured output directory.
	outputDir string

	// logLevel sets the verbosity of the run.
	logLevel string

	// rootCmd represents the base command that orchestrates a release build.
	rootCmd = &cobra.Command{
		Use:   "bestsub-release",
		Short: "Build, package and checksum bestsub release artifacts",
		Long: "Build the selected matrix of platforms and architectures, " +
			"package every binary with the license and readme into a " +
			"distributable archive, and emit a checksum manifest.",
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			options := &release.Options{
				ConfigPath: configPath,
				Release:    releaseMode,
				OutputDir:  outputDir,
			}

			return release.Run(ctx, options)
		},
	}
)

// Execute runs the bestsub-release CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"path to release settings file (default "+config.DefaultConfigFilename+" when present)")
	rootCmd.Flags().BoolVarP(&releaseMode, "release", "r", false, "build the full matrix without prompting")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "override the output directory")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
}
