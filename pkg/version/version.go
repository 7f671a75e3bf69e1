// Package version exposes build metadata (compiled in via -ldflags) to
// the rest of fulmen-go: the C9 admin capabilities endpoint (through
// FullVersion) and a User-Agent string from UserAgent.
package version

import (
	"fmt"
	"runtime"
)

// Build information set by the compiler flags.
var (
	// Version is the service version.
	Version = "0.1.0"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildTime is the time the binary was built.
	BuildTime = "unknown"

	// GoVersion is the version of Go used to build the binary.
	GoVersion = runtime.Version()
)

// Info is the structured form of the package-level build variables,
// suitable for embedding in a JSON response or a startup log entry
// rather than parsing it back out of FullVersion's formatted string.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Struct returns the current build metadata as an Info value.
func Struct() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// FullVersion returns the full version string including git commit,
// build time, and the platform the binary was compiled for.
func FullVersion() string {
	i := Struct()
	return fmt.Sprintf("%s (commit: %s, built: %s, %s, %s)", i.Version, i.GitCommit, i.BuildTime, i.GoVersion, i.Platform)
}

// UserAgent returns a string suitable for use as an HTTP User-Agent
// header when fulmen-go's admin scaffolds call out to another service
// (e.g. an external alert webhook from a signal handler).
func UserAgent() string {
	return fmt.Sprintf("fulmen-go/%s (%s)", Version, runtime.GOOS)
}
