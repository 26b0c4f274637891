// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package versions reports build information for hello-otel.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

const unknownStr = "unknown"

// Set at build time with -ldflags "-X github.com/stacklok/hello-otel/pkg/versions.Version=..."
var (
	// Version is the release version, "dev" for local builds
	Version = "dev"
	// Commit is the git commit hash of the build
	//nolint:goconst // placeholder
	Commit = unknownStr
	// BuildDate is the RFC 3339 build timestamp
	//nolint:goconst // placeholder
	BuildDate = unknownStr
)

// VersionInfo is the build information served by /version and reported as
// the service.version resource attribute.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the build information. Development builds fall back
// to the VCS stamp embedded by the Go toolchain and are versioned as
// "build-<short commit>".
func GetVersionInfo() VersionInfo {
	ver, commit, buildDate := Version, Commit, BuildDate

	if ver == "dev" {
		commit, buildDate = fromBuildInfo(commit, buildDate)
	}

	if buildDate != unknownStr {
		if t, err := time.Parse(time.RFC3339, buildDate); err == nil {
			buildDate = t.UTC().Format("2006-01-02 15:04:05 MST")
		}
	}

	if ver == "dev" {
		ver = "build-" + commit[:min(8, len(commit))]
	}

	return VersionInfo{
		Version:   ver,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func fromBuildInfo(commit, buildDate string) (string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, buildDate
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if commit == unknownStr {
				commit = setting.Value
			}
		case "vcs.time":
			if buildDate == unknownStr {
				buildDate = setting.Value
			}
		}
	}
	return commit, buildDate
}
