// Package version carries build metadata injected at link time.
package version

import "fmt"

// Version is the released version of artifactpub. Set via ldflags:
// go build -ldflags "-X git.home.luguber.info/inful/artifactpub/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the value printed by --version.
func String() string {
	if GitCommit == "unknown" && BuildTime == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
