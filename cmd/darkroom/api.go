package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/darkroom/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running darkroom server via HTTP.

These commands require a running server (darkroom serve).
Use --server to specify a custom server URL.

Examples:
  darkroom api health                  # Check server health
  darkroom api shoots list             # List all shoots
  darkroom api shoots get <id>         # Get a specific shoot`,
}

var shootsCmd = &cobra.Command{
	Use:   "shoots",
	Short: "Shoot session commands",
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Store maintenance commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8585", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ListStylesEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.GetStyleEndpoint{}).Command(getServerURL))

	// Shoots as subcommand group
	shootsCmd.AddCommand((&endpoints.CreateShootEndpoint{}).Command(getServerURL))
	shootsCmd.AddCommand((&endpoints.ListShootsEndpoint{}).Command(getServerURL))
	shootsCmd.AddCommand((&endpoints.GetShootEndpoint{}).Command(getServerURL))
	shootsCmd.AddCommand((&endpoints.UpdateShootEndpoint{}).Command(getServerURL))
	shootsCmd.AddCommand((&endpoints.DeleteShootEndpoint{}).Command(getServerURL))
	shootsCmd.AddCommand((&endpoints.AddFrameEndpoint{}).Command(getServerURL))
	shootsCmd.AddCommand((&endpoints.DeleteFrameEndpoint{}).Command(getServerURL))
	shootsCmd.AddCommand((&endpoints.UploadSnapshotEndpoint{}).Command(getServerURL))
	shootsCmd.AddCommand((&endpoints.DeleteSnapshotEndpoint{}).Command(getServerURL))
	shootsCmd.AddCommand((&endpoints.SnapshotImageEndpoint{}).Command(getServerURL))
	shootsCmd.AddCommand((&endpoints.GenerateEndpoint{}).Command(getServerURL))
	shootsCmd.AddCommand((&endpoints.ExportShootEndpoint{}).Command(getServerURL))

	// Admin as subcommand group
	adminCmd.AddCommand((&endpoints.RebuildIndexEndpoint{}).Command(getServerURL))
	adminCmd.AddCommand((&endpoints.ReconcileEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(shootsCmd)
	apiCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(apiCmd)
}
