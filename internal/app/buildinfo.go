package app

import "fmt"

// Build information populated via -ldflags at build time.
var (
	BuildVersion = "0.0.0-dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// Version formats the build information for /health and -version.
func Version() string {
	if BuildCommit == "unknown" {
		return BuildVersion
	}
	return fmt.Sprintf("%s (%s, %s)", BuildVersion, BuildCommit, BuildDate)
}
