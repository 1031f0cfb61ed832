// Package version carries build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime/debug"
)

// Build metadata, overridden at link time:
//
//	-X github.com/Sumatoshi-tech/pyprune/pkg/version.Version=v1.0.0
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the metadata for the version command.
func String() string {
	return fmt.Sprintf("pyprune %s (commit: %s, built: %s)", resolvedVersion(), Commit, Date)
}

// resolvedVersion falls back to the module version recorded by `go install`.
func resolvedVersion() string {
	if Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return Version
}
