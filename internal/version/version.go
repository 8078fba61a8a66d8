// Package version holds build identification, stamped via -ldflags at
// release time.
package version

var (
	// Version is the release tag, "dev" for untagged builds.
	Version = "dev"
	// GitSHA identifies the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime records when the binary was built.
	BuildTime = "unknown"
)
