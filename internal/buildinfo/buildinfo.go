// Package buildinfo carries release metadata for `optiq version`.
package buildinfo

// Injected via -ldflags for release binaries. Empty for local builds,
// where the version command falls back to module build info.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)
