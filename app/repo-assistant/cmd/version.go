package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionInfo struct {
	version, commit, buildTime string
}

// SetVersionInfo records the build metadata printed by the version command
func SetVersionInfo(version, commit, buildTime string) {
	versionInfo.version = version
	versionInfo.commit = commit
	versionInfo.buildTime = buildTime
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Needs no configuration
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("repo-assistant %s (commit %s, built %s)\n", versionInfo.version, versionInfo.commit, versionInfo.buildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
