// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package versions provides version information for the vws binary.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

const unknownStr = "unknown"

// Version information set by build using -ldflags.
var (
	// Version is the current version of wardensync.
	Version = "dev"
	// Commit is the git commit hash the binary was built from.
	Commit = unknownStr
	// BuildDate is the date the binary was built.
	BuildDate = unknownStr
)

// VersionInfo represents the version information of the binary.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the version information for the current binary.
func GetVersionInfo() VersionInfo {
	version := Version
	commit := Commit
	buildDate := BuildDate

	// For binaries built straight from source without ldflags, fall back to
	// the VCS metadata stamped by the Go toolchain, when present.
	if version == "dev" {
		if commit == unknownStr {
			if info, ok := debug.ReadBuildInfo(); ok {
				for _, setting := range info.Settings {
					switch setting.Key {
					case "vcs.revision":
						commit = setting.Value
					case "vcs.time":
						buildDate = setting.Value
					}
				}
			}
		}

		shortCommit := commit
		if len(shortCommit) > 8 {
			shortCommit = shortCommit[:8]
		}
		version = "build-" + shortCommit
	}

	// Normalize RFC3339 build dates into a friendlier form; anything else is
	// passed through untouched.
	if t, err := time.Parse(time.RFC3339, buildDate); err == nil {
		buildDate = t.UTC().Format("2006-01-02 15:04:05 UTC")
	}

	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
