// Package version reports the build version of termengine.
package version

import (
	"runtime/debug"
	"strings"
)

// Set via -ldflags "-X github.com/dshills/termengine/internal/version.version=...".
var (
	version = ""
	commit  = ""
)

// Current returns the best available version string.
func Current() string {
	if v := strings.TrimSpace(version); v != "" {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}

// Commit returns the VCS revision the binary was built from, or "unknown".
func Commit() string {
	if c := strings.TrimSpace(commit); c != "" {
		return c
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return "unknown"
}
