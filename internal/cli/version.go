package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Materials-Consortia/optimade-go/internal/buildinfo"
)

const defaultModulePath = "github.com/Materials-Consortia/optimade-go"

type versionInfo struct {
	Version    string `json:"version"`
	ModulePath string `json:"module_path"`
	Commit     string `json:"commit,omitempty"`
	GoVersion  string `json:"go_version"`
	GOOS       string `json:"goos"`
	GOARCH     string `json:"goarch"`
	Modified   bool   `json:"modified"`
}

var readBuildInfo = debug.ReadBuildInfo

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show optiq version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentVersionInfo()

		if isJSONOutput() {
			outputSuccess(info)
			return nil
		}

		fmt.Printf("optiq %s\n", info.Version)
		fmt.Printf("module: %s\n", info.ModulePath)
		if info.Commit != "" {
			fmt.Printf("commit: %s\n", info.Commit)
		}
		fmt.Printf("go: %s\n", info.GoVersion)
		fmt.Printf("platform: %s/%s\n", info.GOOS, info.GOARCH)
		return nil
	},
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:    "devel",
		ModulePath: defaultModulePath,
		GoVersion:  runtime.Version(),
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
	}

	buildInfo, ok := readBuildInfo()
	if ok && buildInfo != nil {
		if buildInfo.Main.Path != "" {
			info.ModulePath = buildInfo.Main.Path
		}
		if v := buildInfo.Main.Version; v != "" && v != "(devel)" {
			info.Version = v
		}
		if buildInfo.GoVersion != "" {
			info.GoVersion = buildInfo.GoVersion
		}
		info.Commit = buildSetting(buildInfo, "vcs.revision")
		info.Modified = strings.EqualFold(buildSetting(buildInfo, "vcs.modified"), "true")
	}

	// ldflags from release builds win over VCS stamping.
	if buildinfo.Version != "" {
		info.Version = buildinfo.Version
	}
	if info.Commit == "" && buildinfo.Commit != "" {
		info.Commit = buildinfo.Commit
	}
	return info
}

func buildSetting(info *debug.BuildInfo, key string) string {
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
