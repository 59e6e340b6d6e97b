// Package version reports build metadata injected at link time.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/Sumatoshi-tech/specscope/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata on one line. When no commit was injected
// the VCS revision recorded by the Go toolchain is used.
func String() string {
	commit := Commit

	if commit == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && s.Value != "" {
					commit = s.Value

					break
				}
			}
		}
	}

	return fmt.Sprintf("specscope %s (commit %s, built %s)", Version, commit, Date)
}
