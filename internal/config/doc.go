// Package config defines the immutable release-run configuration shared
// by every component: application identity, output layout, toolchain
// cache location and download sources. Settings can be persisted to and
// loaded from a YAML file; unset fields receive stock bestsub defaults.
package config
