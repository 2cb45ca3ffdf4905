package app

import (
	"fmt"
	"runtime/debug"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitTag    = ""
	BuildTime = "unknown"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string
	GitCommit string
	GitTag    string
	BuildTime string
}

// GetVersionInfo returns the ldflags values, filling the commit and build
// time from the embedded VCS stamp when they were not set.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" && len(s.Value) >= 7 {
				info.GitCommit = s.Value[:7]
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

// String returns the release name: the tag when present, else the version.
func (v VersionInfo) String() string {
	if v.GitTag != "" {
		return v.GitTag
	}
	return v.Version
}

// FullString returns a detailed version string for logging.
func (v VersionInfo) FullString() string {
	return fmt.Sprintf("tunestream %s (commit: %s, built: %s)", v, v.GitCommit, v.BuildTime)
}
