// Package version exposes the build identity stamped into the amber binary.
package version

import (
	"fmt"
	"runtime"
)

// Injected with -ldflags at release time; dev builds keep these defaults.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Build is the full identity of the running binary.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Info collects the stamped values plus the toolchain and platform the
// binary was compiled with.
func Info() Build {
	return Build{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders a one-line version banner for the CLI.
func String() string {
	b := Info()
	return fmt.Sprintf("Amber %s (commit: %s, built: %s, go: %s)",
		b.Version, b.Commit, b.BuildTime, b.GoVersion)
}
