// Package appversion reports the build information of the gitbuildnumber
// binary itself.
//
// Release builds inject the values via ldflags:
//
//	-ldflags="-X github.com/dantte-lp/gitbuildnumber/internal/version.Version=v1.0.0
//	          -X github.com/dantte-lp/gitbuildnumber/internal/version.GitCommit=abc1234
//	          -X github.com/dantte-lp/gitbuildnumber/internal/version.BuildDate=2026-02-22T12:00:00Z"
//
// Development builds fall back to the VCS settings the Go toolchain embeds
// when building from a checkout.
package appversion

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// Injected by ldflags. Empty means "not injected".
var (
	Version   string
	GitCommit string
	BuildDate string
)

// Info is the resolved build information.
type Info struct {
	Version   string
	GitCommit string
	BuildDate string
	Modified  bool
	GoVersion string
}

var (
	once   sync.Once
	cached Info
)

// Get returns the build information, computed once per process.
func Get() Info {
	once.Do(func() {
		bi, _ := debug.ReadBuildInfo()
		cached = resolve(bi, Version, GitCommit, BuildDate)
	})
	return cached
}

// resolve prefers the ldflags values and falls back to the toolchain's
// vcs.* build settings.
func resolve(bi *debug.BuildInfo, version, commit, date string) Info {
	info := Info{
		Version:   "dev",
		GitCommit: "unknown",
		BuildDate: "unknown",
	}

	if bi != nil {
		info.GoVersion = bi.GoVersion
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.GitCommit = s.Value
			case "vcs.time":
				info.BuildDate = s.Value
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
		if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
	}

	if version != "" {
		info.Version = version
	}
	if commit != "" {
		info.GitCommit = commit
	}
	if date != "" {
		info.BuildDate = date
	}

	return info
}

// Full returns a human-readable multi-line version string.
func Full(binary string) string {
	info := Get()

	commit := info.GitCommit
	if info.Modified {
		commit += " (modified)"
	}

	return fmt.Sprintf("%s %s\n  commit:  %s\n  built:   %s\n  go:      %s",
		binary, info.Version, commit, info.BuildDate, info.GoVersion)
}
