// Package version holds build-time version information for the agentgw
// binary. The variables are injected via -ldflags:
//
// -X github.com/launchpath/agent-gateway/internal/version.Version=v0.1.0
// -X github.com/launchpath/agent-gateway/internal/version.Commit=abc1234
//
// so local builds without ldflags still produce sensible output.
package version

import "fmt"

// Variables set at link time. Default to dev values.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns a single-line human-readable version string.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}

// Short returns just the version tag, e.g. "v0.1.0" or "dev".
func Short() string {
	return Version
}
