package version

import "testing"

func TestVersionDefaults(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}

	// Until ldflags set it, the default stays "unknown"
	if Version != "unknown" {
		t.Logf("Version is: %s (set via ldflags)", Version)
	}
}

func TestBuildMetadata(t *testing.T) {
	if BuildTime == "" {
		t.Error("BuildTime should be initialized")
	}
	if GitCommit == "" {
		t.Error("GitCommit should be initialized")
	}
}
