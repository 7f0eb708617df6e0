// Package version reports which railctl build is running.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/example/railctl/internal/version.Commit=$(git rev-parse HEAD)"
var (
	Commit    = ""
	BuildTime = ""
)

// String returns the version line printed by `railctl --version`. Without
// ldflags it falls back to the VCS stamp the Go toolchain embeds.
func String() string {
	commit, built := Commit, BuildTime
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && commit == "":
				commit = s.Value
			case s.Key == "vcs.time" && built == "":
				built = s.Value
			}
		}
	}
	return format(commit, built)
}

func format(commit, built string) string {
	if commit == "" {
		commit = "unknown"
	}
	if built == "" {
		built = "unknown"
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("railctl dev (commit: %s, built: %s)", commit, built)
}
