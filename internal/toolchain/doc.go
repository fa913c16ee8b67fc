// Package toolchain provisions cross-compilation toolchains into a
// user-scoped cache: musl cross compilers for static Linux builds and
// the Android NDK bundle. Provisioning is idempotent: a toolchain
// whose compiler is already present is never re-downloaded. Failures
// are reported as ProvisionError so callers can decide whether to skip
// the dependent cells or abort.
package toolchain
