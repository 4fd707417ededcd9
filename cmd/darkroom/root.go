package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/darkroom/internal/api"
	"github.com/jackzampolin/darkroom/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "darkroom",
	Short: "AI photo studio with file-backed shoot sessions",
	Long: `Darkroom organizes AI image generation into photo shoots.

A shoot holds frames (one set of generation parameters each), and every
frame collects the snapshots generated or uploaded for it. Everything is
stored as plain JSON documents and image files under the darkroom home
directory, so a shoot survives restarts and syncs cleanly.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.darkroom/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "darkroom home directory (default: ~/.darkroom)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
