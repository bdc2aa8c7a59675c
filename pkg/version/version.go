// Package version exposes build metadata set through -ldflags, e.g.
//
//	go build -ldflags "-X github.com/rshade/mealcarbon/pkg/version.version=1.2.0"
package version

import "fmt"

//nolint:gochecknoglobals // Set at link time.
var (
	version = "0.1.0-dev"
	commit  = "unknown"
	date    = "unknown"
)

// GetVersion returns the release version.
func GetVersion() string {
	return version
}

// GetCommit returns the source revision the binary was built from.
func GetCommit() string {
	return commit
}

// GetBuildDate returns the build timestamp.
func GetBuildDate() string {
	return date
}

// String returns the version with commit and build date.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}
