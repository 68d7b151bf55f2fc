package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/mxl/types-publisher/internal/gitctx"
	"github.com/mxl/types-publisher/pkg/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print types-publisher version information",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("extended", false, "Include build and platform details")
	versionCmd.Flags().Bool("json", false, "Output as JSON")
}

type versionInfo struct {
	Version    string `json:"version"`
	GoVersion  string `json:"goVersion,omitempty"`
	Platform   string `json:"platform,omitempty"`
	Repository string `json:"repository,omitempty"`
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	jsonOut, _ := cmd.Flags().GetBool("json")

	info := versionInfo{Version: buildinfo.Version()}
	if extended {
		info.GoVersion = buildinfo.GoVersion()
		info.Platform = buildinfo.Platform()
		if repo := gitctx.Collect("."); repo != nil {
			info.Repository = repo.Describe()
		}
	}

	if jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("types-publisher %s\n", info.Version)
	if extended {
		cmd.Printf("go: %s\n", info.GoVersion)
		cmd.Printf("platform: %s\n", info.Platform)
		if info.Repository != "" {
			cmd.Printf("repository: %s\n", info.Repository)
		}
	}
	return nil
}
