// Package version exposes build metadata injected at link time.
package version

//nolint:gochecknoglobals // These variables are overridden via -ldflags at build time.
var (
	// Version is the application version, set at build time.
	Version = "1.0.0"
	// Commit is the git commit hash, set at build time.
	Commit = "none"
	// BuildTime is the build timestamp, set at build time.
	BuildTime = "unknown"
)

// Short returns only the version string.
func Short() string {
	return Version
}

// Full returns the version, commit, and build time in a single string.
func Full() string {
	return "version: " + Version + ", commit: " + Commit + ", built at: " + BuildTime
}
