// Package version carries build-time version information.
package version

// Set at build time via -ldflags.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)
