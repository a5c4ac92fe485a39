package versions

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"testing"
)

func TestGetVersionInfo(t *testing.T) { //nolint:paralleltest // Modifies global variables
	// Cannot run in parallel because it modifies global variables
	origVersion := Version
	origCommit := Commit
	origBuildDate := BuildDate
	t.Cleanup(func() {
		Version = origVersion
		Commit = origCommit
		BuildDate = origBuildDate
	})

	tests := []struct {
		name      string
		version   string
		commit    string
		buildDate string
		wantCheck func(VersionInfo) bool
	}{
		{
			name:      "dev build with unknown commit",
			version:   "dev",
			commit:    unknownStr,
			buildDate: unknownStr,
			wantCheck: func(v VersionInfo) bool {
				// Test binaries carry no vcs stamp, so the commit stays unknown
				// and the version falls back to build-unknown.
				return strings.HasPrefix(v.Version, "build-") &&
					v.BuildDate == unknownStr &&
					v.GoVersion == runtime.Version() &&
					v.Platform == fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
			},
		},
		{
			name:      "dev build with commit",
			version:   "dev",
			commit:    "4f9a3c1e7b2d508",
			buildDate: unknownStr,
			wantCheck: func(v VersionInfo) bool {
				// Commit is shortened to eight characters in the version string.
				return v.Version == "build-4f9a3c1e" &&
					v.Commit == "4f9a3c1e7b2d508" &&
					v.BuildDate == unknownStr
			},
		},
		{
			name:      "dev build with short commit",
			version:   "dev",
			commit:    "4f9a",
			buildDate: unknownStr,
			wantCheck: func(v VersionInfo) bool {
				return v.Version == "build-4f9a" && v.Commit == "4f9a"
			},
		},
		{
			name:      "release build",
			version:   "v0.3.1",
			commit:    "4f9a3c1e7b2d508",
			buildDate: "2026-02-11T08:15:00Z",
			wantCheck: func(v VersionInfo) bool {
				return v.Version == "v0.3.1" &&
					v.Commit == "4f9a3c1e7b2d508" &&
					v.BuildDate == "2026-02-11 08:15:00 UTC"
			},
		},
		{
			name:      "unparseable build date is passed through",
			version:   "v0.3.1",
			commit:    "4f9a",
			buildDate: "yesterday-ish",
			wantCheck: func(v VersionInfo) bool {
				return v.BuildDate == "yesterday-ish"
			},
		},
	}

	for _, tt := range tests { //nolint:paralleltest // Test modifies global variables
		t.Run(tt.name, func(t *testing.T) {
			Version = tt.version
			Commit = tt.commit
			BuildDate = tt.buildDate

			got := GetVersionInfo()

			if !tt.wantCheck(got) {
				t.Errorf("GetVersionInfo() check failed, got = %+v", got)
			}
		})
	}
}

func TestVersionInfoJSON(t *testing.T) {
	t.Parallel()

	vi := VersionInfo{
		Version:   "v0.3.1",
		Commit:    "4f9a",
		BuildDate: "2026-02-11 08:15:00 UTC",
		GoVersion: "go1.26.1",
		Platform:  "linux/amd64",
	}

	out, err := json.Marshal(vi)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for _, key := range []string{`"version"`, `"commit"`, `"build_date"`, `"go_version"`, `"platform"`} {
		if !strings.Contains(string(out), key) {
			t.Errorf("marshalled version info missing %s: %s", key, out)
		}
	}
}
