// Package version exposes the build version of the scramble binaries.
package version

var version = "dev"

// Get returns the version string. Set at build time with
// -ldflags "-X github.com/bkonicek/scramble/pkg/version.version=...".
func Get() string {
	return version
}
