package version

import (
	"runtime"
	"strings"
	"testing"
)

// setBuildIdentity overrides the stamped values for one test.
func setBuildIdentity(t *testing.T, version, commit, buildTime string) {
	t.Helper()

	origVersion, origCommit, origBuildTime := Version, GitCommit, BuildTime
	t.Cleanup(func() {
		Version, GitCommit, BuildTime = origVersion, origCommit, origBuildTime
	})
	Version, GitCommit, BuildTime = version, commit, buildTime
}

func TestString_DevBuild(t *testing.T) {
	setBuildIdentity(t, "dev", "unknown", "unknown")

	banner := String()
	for _, want := range []string{"Amber", "dev", "unknown", runtime.Version()} {
		if !strings.Contains(banner, want) {
			t.Errorf("String() = %q, missing %q", banner, want)
		}
	}
}

func TestString_ReleaseBuild(t *testing.T) {
	setBuildIdentity(t, "1.2.3", "abc123def", "2024-01-15T10:30:00Z")

	banner := String()
	for _, want := range []string{"1.2.3", "abc123def", "2024-01-15T10:30:00Z"} {
		if !strings.Contains(banner, want) {
			t.Errorf("String() = %q, missing %q", banner, want)
		}
	}
}

func TestInfo(t *testing.T) {
	setBuildIdentity(t, "2.0.0", "fedcba987", "2024-02-20T15:45:30Z")

	got := Info()
	want := Build{
		Version:   "2.0.0",
		Commit:    "fedcba987",
		BuildTime: "2024-02-20T15:45:30Z",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if got != want {
		t.Errorf("Info() = %+v, want %+v", got, want)
	}
}

func TestDefaultsPresent(t *testing.T) {
	// A binary built without ldflags must still identify itself.
	if Version == "" || GitCommit == "" || BuildTime == "" {
		t.Errorf("stamped values must have defaults: Version=%q GitCommit=%q BuildTime=%q",
			Version, GitCommit, BuildTime)
	}
}
