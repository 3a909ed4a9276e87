// Package version carries build metadata stamped in at link time.
package version

// Populated via -ldflags at release build; defaults identify dev builds.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
