package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// 这些变量将在构建时通过 ldflags 注入
var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo 包含构建信息
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// GetBuildInfo 返回详细的构建信息；ldflags 未注入时回退到 debug.ReadBuildInfo
func GetBuildInfo() BuildInfo {
	info := BuildInfo{Version: Version, Commit: Commit, Date: Date, GoVersion: GoVersion}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	if info.Version == "dev" || info.Version == "" {
		if v := buildInfo.Main.Version; v != "" && v != "(devel)" {
			info.Version = v
		}
	}

	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.Commit == "unknown" || info.Commit == "" {
				info.Commit = setting.Value
				if len(info.Commit) > 7 {
					info.Commit = info.Commit[:7]
				}
			}
		case "vcs.time":
			if info.Date == "unknown" || info.Date == "" {
				info.Date = setting.Value
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					info.Date = t.Format("2006-01-02 15:04:05")
				}
			}
		}
	}
	return info
}

// GetVersionString 返回完整的版本字符串
func GetVersionString() string {
	info := GetBuildInfo()

	parts := []string{info.Version}
	if info.Commit != "unknown" {
		parts = append(parts, fmt.Sprintf("commit %s", info.Commit))
	}
	if info.Date != "unknown" {
		parts = append(parts, fmt.Sprintf("built at %s", info.Date))
	}
	return strings.Join(parts, ", ")
}
