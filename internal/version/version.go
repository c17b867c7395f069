// Package version exposes build metadata stamped in at link time, e.g.
// -ldflags "-X github.com/cowlitea/cowlitea/internal/version.Version=v1.2.3".
package version

//nolint:revive // Overridden via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
