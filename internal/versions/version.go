// Package versions provides build information for the country registry binary.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/Masterminds/semver/v3"
)

const (
	unknownStr = "unknown"
	devVersion = "dev"
)

// Version information set by build using -ldflags
var (
	// Version is the released version, e.g. "1.4.0" or "v1.4.0"
	Version = devVersion
	// Commit is the git commit hash of the build
	Commit = unknownStr
	// BuildDate is the RFC 3339 date when the binary was built
	BuildDate = unknownStr
)

// VersionInfo represents the version information
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the version information
func GetVersionInfo() VersionInfo {
	return getVersionInfoWithValues(Version, Commit, BuildDate)
}

func getVersionInfoWithValues(version, commit, buildDate string) VersionInfo {
	if version == devVersion {
		if info, ok := debug.ReadBuildInfo(); ok {
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
		}
	}

	if buildDate != unknownStr {
		if t, err := time.Parse(time.RFC3339, buildDate); err == nil {
			buildDate = t.UTC().Format("2006-01-02 15:04:05 MST")
		}
	}

	return VersionInfo{
		Version:   normalizeVersion(version, commit),
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// normalizeVersion renders semantic versions as "vMAJOR.MINOR.PATCH[-pre]" and
// development builds as "build-<short commit>". Anything else is kept as given.
func normalizeVersion(version, commit string) string {
	if version == devVersion {
		return fmt.Sprintf("build-%.*s", 8, commit)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return version
	}
	return "v" + v.String()
}
