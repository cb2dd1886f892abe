// Package version carries build metadata injected with -ldflags.
package version

var (
	// Version is the released version, "dev" for local builds.
	Version = "dev"
	// Commit is the git commit the binary was built from.
	Commit = ""
	// BuildDate is the UTC build timestamp.
	BuildDate = ""
)
